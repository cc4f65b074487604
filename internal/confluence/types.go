package confluence

// StatusCurrent is the only page status docsync writes.
const StatusCurrent = "current"

// RepresentationStorage marks a body as storage format XHTML.
const RepresentationStorage = "storage"

// PageRef is an existing page as returned by a title lookup.
type PageRef struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Version Version `json:"version"`
}

// Version is a page version. Message is only sent on updates.
type Version struct {
	Number  int    `json:"number"`
	Message string `json:"message,omitempty"`
}

// PageInput is the content of a page write.
type PageInput struct {
	Title string
	// ParentID empty means no parent.
	ParentID string
	Body     string
}

type results[T any] struct {
	Results []T `json:"results"`
}

type space struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type pageBody struct {
	Storage storageBody `json:"storage"`
}

type createPageRequest struct {
	SpaceID  string   `json:"spaceId"`
	Status   string   `json:"status"`
	Title    string   `json:"title"`
	ParentID *string  `json:"parentId"`
	Body     pageBody `json:"body"`
}

type updatePageRequest struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	ParentID *string  `json:"parentId"`
	Title    string   `json:"title"`
	Body     pageBody `json:"body"`
	Version  Version  `json:"version"`
}

type createPageResponse struct {
	ID string `json:"id"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func storage(value string) pageBody {
	return pageBody{Storage: storageBody{Value: value, Representation: RepresentationStorage}}
}
