package domain

// RawPosting is one posting as an adapter received it. The set of
// variants is closed; the normalizer switches over all of them.
type RawPosting interface {
	Source() string
	rawPosting()
}

// GreenhousePosting is a job from the Greenhouse boards API.
type GreenhousePosting struct {
	Board        string
	Title        string
	LocationName string
	AbsoluteURL  string
	UpdatedAt    string
	Content      string // HTML, entity-escaped
}

// LeverPosting is a job from the Lever postings API.
type LeverPosting struct {
	Board           string
	Text            string
	Title           string
	Location        string
	HostedURL       string
	ApplyURL        string
	CreatedAtMillis int64
	Description     string
}

// AshbyPosting is a job from the Ashby job-board API. Ashby has shipped
// several field names for the same value over time.
type AshbyPosting struct {
	Board           string
	Title           string
	CompanyName     string
	Location        string
	LocationText    string
	LocationName    string
	JobURL          string
	JobPageURL      string
	ApplyURL        string
	PublishedAt     string
	CreatedAt       string
	DescriptionHTML string
}

// SmartRecruitersPosting is a job from the SmartRecruiters postings API.
type SmartRecruitersPosting struct {
	Company           string // configured company slug
	CompanyName       string
	CompanyIdentifier string
	ID                string
	Name              string
	City              string
	Region            string
	Country           string
	Remote            bool
	ReleasedDate      string
}

// FeedPosting is an RSS item or Atom entry.
type FeedPosting struct {
	Feed      string // configured feed name
	Title     string
	Author    string
	Link      string
	Summary   string
	Published string
}

// AlertPosting is a posting that arrives already flattened: job-alert
// emails, guest search pages, manually submitted links.
type AlertPosting struct {
	SourceName    string
	Title         string
	Company       string
	Location      string
	Link          string
	PostedText    string
	PostedDate    string
	Summary       string
	ApplicantText string
}

func (GreenhousePosting) Source() string      { return "Greenhouse" }
func (LeverPosting) Source() string           { return "Lever" }
func (AshbyPosting) Source() string           { return "Ashby" }
func (SmartRecruitersPosting) Source() string { return "SmartRecruiters" }

func (p FeedPosting) Source() string {
	if p.Feed != "" {
		return p.Feed
	}
	return "RSS"
}

func (p AlertPosting) Source() string {
	if p.SourceName != "" {
		return p.SourceName
	}
	return "Alert"
}

func (GreenhousePosting) rawPosting()      {}
func (LeverPosting) rawPosting()           {}
func (AshbyPosting) rawPosting()           {}
func (SmartRecruitersPosting) rawPosting() {}
func (FeedPosting) rawPosting()            {}
func (AlertPosting) rawPosting()           {}
