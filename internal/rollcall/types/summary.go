package types

type SummaryField struct {
	Name  string
	Value string
}

// Summary is the transport-neutral content of a mirror message.
type Summary struct {
	Title       string
	Description string
	Fields      []SummaryField
	Color       int
	// Controls re-attaches the enter/leave buttons.
	Controls bool
}

const (
	ColorBlue      = 0x3498db
	ColorLightGrey = 0x979c9f
	ColorOrange    = 0xe67e22
)
