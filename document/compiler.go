// Package document assembles generated battle imagery into a single
// shareable file.
package document

// Compiler appends image pages and produces the final document bytes.
// AppendPage failures are reported per page so a corrupt artifact never
// loses the rest of the document.
type Compiler interface {
	AppendPage(image []byte) error
	Finalize() ([]byte, error)
}
