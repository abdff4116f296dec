package data

// StatusFinished is the serialization status the site shows for books whose
// run has ended.
const StatusFinished = "已完结"

// Chapter is one table-of-contents entry. Title is unique within a book and
// doubles as the bookstore record key; Content is empty until recovered.
type Chapter struct {
	Title    string
	RemoteID string
	Content  string
}

// Book identity is the remote numeric id; the title is derived from the book
// page, not authoritative. Chapters keep the reading order the site lists.
type Book struct {
	ID       string
	Title    string
	Status   string
	Chapters []Chapter
}

// Finished reports whether the remote serialization is complete.
func (b *Book) Finished() bool {
	return b.Status == StatusFinished
}
