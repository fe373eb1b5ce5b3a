package model

// EvidenceSnippet is a short external text fragment used as input to entailment judgment
type EvidenceSnippet struct {
	Source    string        `json:"source"`              // Provider tag (e.g., "web:ddg")
	URL       *string       `json:"url"`                 // Optional source URL
	Title     *string       `json:"title"`               // Optional title/heading
	Snippet   string        `json:"snippet"`             // The evidence text
	Authority AuthorityTier `json:"authority,omitempty"` // Source authority classification (0 = not classified)
	Link      *LinkStatus   `json:"link,omitempty"`      // Reachability, only when link checking is enabled
}

// URLOrEmpty returns the snippet URL or "" when absent
func (e EvidenceSnippet) URLOrEmpty() string {
	if e.URL == nil {
		return ""
	}
	return *e.URL
}

// TitleOrEmpty returns the snippet title or "" when absent
func (e EvidenceSnippet) TitleOrEmpty() string {
	if e.Title == nil {
		return ""
	}
	return *e.Title
}

// StringPtr returns a pointer to s, or nil for the empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, statutes, academic papers, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, aggregators
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// MarshalText renders the tier by name so JSON output stays readable
func (t AuthorityTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name
func (t *AuthorityTier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "primary":
		*t = TierPrimary
	case "secondary":
		*t = TierSecondary
	case "tertiary":
		*t = TierTertiary
	default:
		*t = TierUnknown
	}
	return nil
}

// LinkStatus contains the result of checking an evidence URL
type LinkStatus struct {
	Accessible  bool   `json:"accessible"`
	StatusCode  int    `json:"status_code,omitempty"`
	Dead        bool   `json:"dead"`                   // 404, 410, or unreachable
	Disallowed  bool   `json:"disallowed,omitempty"`   // robots.txt forbids the path
	RedirectURL string `json:"redirect_url,omitempty"` // If redirected
	Error       string `json:"error,omitempty"`
}
