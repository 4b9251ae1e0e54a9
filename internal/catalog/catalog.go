package catalog

// Tier classifies how much access a channel requires.
type Tier string

const (
	TierPublic   Tier = "public"
	TierSession  Tier = "session"
	TierNotReady Tier = "not-ready"
)

// Channel is a static descriptor for an external site the scraping
// agent may visit. The catalog only describes channels; session state
// lives in the store.
type Channel struct {
	ID                 string   `json:"id" db:"id"`
	Name               string   `json:"name" db:"name"`
	LoginURL           string   `json:"login_url" db:"login_url"`
	LoggedInIndicator  string   `json:"logged_in_indicator" db:"logged_in_indicator"`
	LoginPageIndicator string   `json:"login_page_indicator" db:"login_page_indicator"`
	Tier               Tier     `json:"tier" db:"tier"`
	MonitorURLs        []string `json:"monitor_urls" db:"-"`
	MonitorURLsJSON    string   `json:"-" db:"monitor_urls"`
}

// Default returns the built-in channel catalog. Callers get a fresh
// slice on every call; the catalog never changes at runtime.
func Default() []Channel {
	return []Channel{
		{
			ID:                 "reddit",
			Name:               "Reddit",
			LoginURL:           "https://www.reddit.com/login/",
			LoggedInIndicator:  "user-drawer-button",
			LoginPageIndicator: "login-username",
			MonitorURLs: []string{
				"https://www.reddit.com/r/chch/new/",
				"https://www.reddit.com/r/newzealand/new/",
			},
			Tier: TierPublic,
		},
		{
			ID:                 "trademe",
			Name:               "TradeMe",
			LoginURL:           "https://www.trademe.co.nz/a/login",
			LoggedInIndicator:  "tm-header-authenticated",
			LoginPageIndicator: "login_email",
			MonitorURLs: []string{
				"https://www.trademe.co.nz/a/marketplace/services/cleaning/search?region=15",
				"https://www.trademe.co.nz/a/jobs/trades-services/cleaning/search?region=15",
				"https://www.trademe.co.nz/a/jobs/it/web-development/search?region=15",
				"https://www.trademe.co.nz/a/marketplace/computers/services/search?region=15",
			},
			Tier: TierSession,
		},
		{
			ID:                 "seek",
			Name:               "Seek NZ",
			LoginURL:           "https://www.seek.co.nz/oauth/login/",
			LoggedInIndicator:  "user-menu",
			LoginPageIndicator: "emailAddress",
			MonitorURLs: []string{
				"https://www.seek.co.nz/cleaning-jobs/in-Canterbury?sortmode=ListedDate",
				"https://www.seek.co.nz/web-developer-jobs/in-Canterbury?sortmode=ListedDate",
			},
			Tier: TierPublic,
		},
		{
			ID:                 "indeed",
			Name:               "Indeed NZ",
			LoginURL:           "https://nz.indeed.com/account/login",
			LoggedInIndicator:  "gnav-header-userinfo",
			LoginPageIndicator: "login-email-input",
			MonitorURLs: []string{
				"https://nz.indeed.com/jobs?q=cleaning&l=Christchurch&sort=date",
				"https://nz.indeed.com/jobs?q=web+developer&l=Christchurch&sort=date",
			},
			Tier: TierPublic,
		},
		{
			ID:                 "airtasker",
			Name:               "Airtasker",
			LoginURL:           "https://www.airtasker.com/login/",
			LoggedInIndicator:  "avatar",
			LoginPageIndicator: "login-form",
			MonitorURLs: []string{
				"https://www.airtasker.com/tasks/?location=Christchurch",
			},
			Tier: TierSession,
		},
		{
			ID:                 "facebook",
			Name:               "Facebook",
			LoginURL:           "https://www.facebook.com/login/",
			LoggedInIndicator:  "x1iyjqo2",
			LoginPageIndicator: "login_form",
			Tier:               TierSession,
		},
		{
			ID:                 "instagram",
			Name:               "Instagram",
			LoginURL:           "https://www.instagram.com/accounts/login/",
			LoggedInIndicator:  "coreSpriteDesktopNavProfile",
			LoginPageIndicator: "loginForm",
			Tier:               TierSession,
		},
		{
			ID:                 "youtube",
			Name:               "YouTube",
			LoginURL:           "https://accounts.google.com/ServiceLogin?service=youtube",
			LoggedInIndicator:  "avatar-btn",
			LoginPageIndicator: "identifierId",
			Tier:               TierSession,
		},
		{
			ID:                 "gmail",
			Name:               "Gmail",
			LoginURL:           "https://accounts.google.com/ServiceLogin?service=mail",
			LoggedInIndicator:  "gb_71",
			LoginPageIndicator: "identifierId",
			Tier:               TierSession,
		},
		{
			ID:                 "craigslist",
			Name:               "Craigslist",
			LoginURL:           "https://accounts.craigslist.org/login",
			LoggedInIndicator:  "al",
			LoginPageIndicator: "inputEmailHandle",
			MonitorURLs: []string{
				"https://christchurch.craigslist.org/search/jjj?sort=date",
				"https://christchurch.craigslist.org/search/ggg?sort=date",
			},
			Tier: TierSession,
		},
		{
			ID:                 "fiverr",
			Name:               "Fiverr",
			LoginURL:           "https://www.fiverr.com/login",
			LoggedInIndicator:  "avatar-decorator",
			LoginPageIndicator: "login-container",
			MonitorURLs: []string{
				"https://www.fiverr.com/categories/programming-tech/web-programming",
			},
			Tier: TierSession,
		},
		{
			ID:                 "gumtree",
			Name:               "Gumtree",
			LoginURL:           "https://www.gumtree.co.nz/login",
			LoggedInIndicator:  "my-gumtree",
			LoginPageIndicator: "login-form",
			MonitorURLs: []string{
				"https://www.gumtree.co.nz/s-jobs/christchurch/v1c9302l3100214p1?sort=date",
				"https://www.gumtree.co.nz/s-services/christchurch/v1c9296l3100214p1?sort=date",
			},
			Tier: TierSession,
		},
		{
			ID:                 "upwork",
			Name:               "Upwork",
			LoginURL:           "https://www.upwork.com/ab/account-security/login",
			LoggedInIndicator:  "nav-user",
			LoginPageIndicator: "login_username",
			MonitorURLs: []string{
				"https://www.upwork.com/nx/search/jobs/?sort=recency&category2_uid=531770282584862721",
			},
			Tier: TierSession,
		},
		{
			ID:                 "freelancer",
			Name:               "Freelancer",
			LoginURL:           "https://www.freelancer.com/login",
			LoggedInIndicator:  "user-avatar",
			LoginPageIndicator: "login-email",
			MonitorURLs: []string{
				"https://www.freelancer.com/jobs/website-design/?sort=latest",
				"https://www.freelancer.com/jobs/web-scraping/?sort=latest",
			},
			Tier: TierSession,
		},
	}
}

// ByID looks up a channel in the given catalog.
func ByID(channels []Channel, id string) (*Channel, bool) {
	for i := range channels {
		if channels[i].ID == id {
			return &channels[i], true
		}
	}
	return nil, false
}

// IDs returns the ids of the given channels in catalog order.
func IDs(channels []Channel) []string {
	ids := make([]string, len(channels))
	for i := range channels {
		ids[i] = channels[i].ID
	}
	return ids
}
