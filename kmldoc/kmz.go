package kmldoc

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	kml "github.com/twpayne/go-kml"
)

var ErrUnknownNode = errors.New("kmldoc: unknown node kind")

// File is a binary attachment, e.g. a rendered PNG, referenced by a relative href.
type File struct {
	Href string
	Data []byte
}

// KMZ is an output document: a root folder, the shared styles its nodes refer to, and any
// attached files. The root and styles belong to whoever is building the document; AddFile
// may be called from any goroutine.
type KMZ struct {
	Name   string
	Root   *Folder
	Styles []*Style

	mu    sync.Mutex
	files []File
}

func NewKMZ(name string) *KMZ {
	return &KMZ{Name: name, Root: NewFolder(name)}
}

// AddStyles registers shared styles; a style already present is not added twice.
func (k *KMZ) AddStyles(styles ...*Style) {
	for _, s := range styles {
		if s == nil {
			continue
		}
		dup := false
		for _, existing := range k.Styles {
			if existing == s {
				dup = true
				break
			}
		}
		if !dup {
			k.Styles = append(k.Styles, s)
		}
	}
}

// AddFile attaches data under href. The file list is append-only.
func (k *KMZ) AddFile(href string, data []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.files = append(k.files, File{Href: href, Data: data})
}

// Files returns a snapshot of the attachments, ordered by href.
func (k *KMZ) Files() []File {
	k.mu.Lock()
	ret := append([]File{}, k.files...)
	k.mu.Unlock()
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Href < ret[j].Href })
	return ret
}

func (k *KMZ) HasFile(href string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, f := range k.files {
		if f.Href == href {
			return true
		}
	}
	return false
}

// {{{ k.Document

// Document converts the node tree into a go-kml Document element.
func (k *KMZ) Document() (kml.Element, error) {
	children := []kml.Element{kml.Name(k.Name)}
	for _, s := range k.Styles {
		children = append(children, styleElement(s))
	}

	root, err := element(k.Root)
	if err != nil {
		return nil, err
	}
	children = append(children, root)

	return kml.Document(children...), nil
}

// }}}
// {{{ k.WriteKML, k.WriteKMZ

// WriteKML writes the bare doc.kml; attached files are not included.
func (k *KMZ) WriteKML(w io.Writer) error {
	doc, err := k.Document()
	if err != nil {
		return fmt.Errorf("WriteKML: %v", err)
	}
	return kml.KML(doc).WriteIndent(w, "", "  ")
}

// WriteKMZ writes a zip archive holding doc.kml, followed by every attached file.
func (k *KMZ) WriteKMZ(w io.Writer) error {
	doc, err := k.Document()
	if err != nil {
		return fmt.Errorf("WriteKMZ: %v", err)
	}

	zw := zip.NewWriter(w)
	fw, err := zw.Create("doc.kml")
	if err != nil {
		return fmt.Errorf("WriteKMZ: %v", err)
	}
	if err := kml.KML(doc).WriteIndent(fw, "", "  "); err != nil {
		return fmt.Errorf("WriteKMZ: doc.kml: %v", err)
	}

	for _, f := range k.Files() {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Href, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("WriteKMZ: %v", err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("WriteKMZ: %s: %v", f.Href, err)
		}
	}

	return zw.Close()
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
