// Command sparsehex converts, inspects and merges sparse firmware images in
// the formats supported by the format package.
package main

func main() {
	execute()
}
