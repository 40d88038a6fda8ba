package api

// Notion request and response shapes. Only the fields this tool reads or
// writes are modelled; everything else in Notion responses is ignored.

// Parent identifies the database a page is created in
type Parent struct {
	DatabaseID string `json:"database_id"`
}

// Icon is a page icon pointing at an external image
type Icon struct {
	Type     string       `json:"type"`
	External ExternalFile `json:"external"`
}

// ExternalFile is a file hosted outside Notion
type ExternalFile struct {
	URL string `json:"url"`
}

// RichText is a plain text run
type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

// TextContent holds the content of a text run
type TextContent struct {
	Content string `json:"content"`
}

// SelectOption is a select property value
type SelectOption struct {
	Name string `json:"name"`
}

// SelectProperty is a select-typed page property
type SelectProperty struct {
	Select *SelectOption `json:"select"`
}

// NumberProperty is a number-typed page property
type NumberProperty struct {
	Number *float64 `json:"number"`
}

// CheckboxProperty is a checkbox-typed page property
type CheckboxProperty struct {
	Checkbox bool `json:"checkbox"`
}

// TitleProperty is the title property of a page
type TitleProperty struct {
	Title []RichText `json:"title"`
}

// DateProperty is a date-typed page property
type DateProperty struct {
	Date *DateValue `json:"date"`
}

// DateValue holds an ISO 8601 date
type DateValue struct {
	Start string `json:"start"`
}

// ComparableProperties are the six properties refreshed on every sync
type ComparableProperties struct {
	Difficulty       SelectProperty   `json:"Difficulty"`
	Rating           NumberProperty   `json:"Rating"`
	DifficultyRating NumberProperty   `json:"Difficulty Rating"`
	Retired          CheckboxProperty `json:"Retired"`
	UserOwn          CheckboxProperty `json:"User Own"`
	SystemOwn        CheckboxProperty `json:"System Own"`
}

// PageProperties is the full property set of a machine page.
// Name, ID, OS and Release Date are only written on creation.
type PageProperties struct {
	Name        TitleProperty  `json:"Name"`
	ID          NumberProperty `json:"ID"`
	OS          SelectProperty `json:"OS"`
	ReleaseDate DateProperty   `json:"Release Date"`
	ComparableProperties
}

// Page is a database row as returned by the query endpoint
type Page struct {
	ID         string         `json:"id"`
	Properties PageProperties `json:"properties"`
}

// DatabaseQueryRequest is the body of POST /databases/{id}/query
type DatabaseQueryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// DatabaseQueryResponse is one page of query results
type DatabaseQueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// CreatePageRequest is the body of POST /pages
type CreatePageRequest struct {
	Parent     Parent         `json:"parent"`
	Icon       *Icon          `json:"icon,omitempty"`
	Properties PageProperties `json:"properties"`
	Children   []Block        `json:"children,omitempty"`
}

// UpdatePageRequest is the body of PATCH /pages/{id}
type UpdatePageRequest struct {
	Properties ComparableProperties `json:"properties"`
}

// Block is a Notion content block. Exactly one of the typed fields is set,
// matching Type.
type Block struct {
	Object           string      `json:"object"`
	Type             string      `json:"type"`
	Heading1         *TextBlock  `json:"heading_1,omitempty"`
	Heading2         *TextBlock  `json:"heading_2,omitempty"`
	Heading3         *TextBlock  `json:"heading_3,omitempty"`
	Paragraph        *TextBlock  `json:"paragraph,omitempty"`
	BulletedListItem *TextBlock  `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock  `json:"numbered_list_item,omitempty"`
	Quote            *TextBlock  `json:"quote,omitempty"`
	Code             *CodeBlock  `json:"code,omitempty"`
	Divider          *EmptyBlock `json:"divider,omitempty"`
}

// TextBlock is the body of any rich-text block
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
}

// CodeBlock is the body of a code block
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

// EmptyBlock is the body of blocks without content, such as dividers
type EmptyBlock struct{}

// Text builds a single plain text run
func Text(content string) RichText {
	return RichText{Type: "text", Text: TextContent{Content: content}}
}
