package domain

// CatalogEntry is one book in the master catalog. BookID is the unique key
// transactions resolve against; everything else is descriptive metadata.
type CatalogEntry struct {
	BookID    int64  `json:"book_id" validate:"min=0"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Language  string `json:"language,omitempty"`
	Link      string `json:"link,omitempty"`
}
