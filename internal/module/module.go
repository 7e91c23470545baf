// Package module is the closed registry of application views (pages) and the
// logical data stores behind them. Lookups go through the tables below; callers
// never branch on raw string ids.
package module

import "fmt"

// Page identifies a navigable view.
type Page string

const (
	Dashboard           Page = "dashboardPage"
	Booking             Page = "bookingPage"
	EmbEntry            Page = "embEntryPage"
	EmbReport           Page = "embReportPage"
	BuyerNotes          Page = "buyerNotesPage"
	BuyerManagement     Page = "buyerManagementPage"
	Report              Page = "reportPage"
	Settings            Page = "settingsPage"
	Merchandising       Page = "merchandisingPage"
	MerchandisingBuyers Page = "merchandisingBuyersPage"
	MyTasks             Page = "myTasksPage"
	MyDiary             Page = "myDiaryPage"
	Profile             Page = "profilePage"
)

// Access classifies how a page is authorized.
type Access int

const (
	// Permitted pages require an entry in the session's allowed module list.
	Permitted Access = iota
	// AlwaysAllowed pages are open to any authenticated session.
	AlwaysAllowed
	// AdminOnly pages are open to admins only, whatever the allowed list says.
	AdminOnly
)

// Group is a sidebar section that is shown when any of its pages is visible.
type Group string

const (
	GroupNone     Group = ""
	GroupTrims    Group = "trims"
	GroupEmb      Group = "emb"
	GroupMerch    Group = "merch"
	GroupPersonal Group = "personal"
)

// PageInfo is the static data attached to a Page.
type PageInfo struct {
	Page   Page
	Label  string
	NavID  string
	View   string
	Access Access
	Group  Group
	// Feeds lists the stores whose live data the view subscribes to while active.
	Feeds []Store
}

var pages = []PageInfo{
	{Page: Dashboard, Label: "Dashboard Overview", NavID: "nav-dashboard", View: "pages/dashboard.html", Access: AlwaysAllowed},
	{Page: Booking, Label: "Booking Operations", NavID: "nav-booking", View: "pages/booking.html", Group: GroupTrims, Feeds: []Store{Bookings, Buyers}},
	{Page: EmbEntry, Label: "Emb Entry", NavID: "nav-emb-entry", View: "pages/emb-entry.html", Group: GroupEmb, Feeds: []Store{EmbReports}},
	{Page: EmbReport, Label: "Emb Reports", NavID: "nav-emb-report", View: "pages/emb-report.html", Group: GroupEmb, Feeds: []Store{EmbReports}},
	{Page: BuyerNotes, Label: "Buyer Notes", NavID: "nav-buyer-notes", View: "pages/buyer-notes.html", Feeds: []Store{BuyerNotesStore}},
	{Page: BuyerManagement, Label: "Buyer Library", NavID: "nav-buyers", View: "pages/buyers.html", Group: GroupTrims, Feeds: []Store{Buyers}},
	{Page: Report, Label: "Analytics & Reports", NavID: "nav-reports", View: "pages/reports.html", Group: GroupTrims, Feeds: []Store{Bookings}},
	{Page: Settings, Label: "System Settings", NavID: "nav-settings", View: "pages/settings.html", Access: AdminOnly},
	{Page: Merchandising, Label: "Packing List", NavID: "nav-merchandising", View: "pages/merchandising.html", Group: GroupMerch, Feeds: []Store{MerchPackingList, MerchBuyers}},
	{Page: MerchandisingBuyers, Label: "Manage Buyers", NavID: "nav-merchandising-buyers", View: "pages/merchandising-buyers.html", Group: GroupMerch, Feeds: []Store{MerchBuyers}},
	{Page: MyTasks, Label: "My Task Planner", NavID: "nav-my-tasks", View: "pages/my-tasks.html", Access: AlwaysAllowed, Group: GroupPersonal, Feeds: []Store{MyTasksStore}},
	{Page: MyDiary, Label: "Personal Diary", NavID: "nav-my-diary", View: "pages/my-diary.html", Access: AlwaysAllowed, Group: GroupPersonal, Feeds: []Store{MyDiaryStore}},
	{Page: Profile, Label: "My Profile", NavID: "nav-profile", View: "pages/profile.html", Access: AlwaysAllowed},
}

var pageIndex = func() map[Page]PageInfo {
	m := make(map[Page]PageInfo, len(pages))
	for _, p := range pages {
		m[p.Page] = p
	}
	return m
}()

// HomeView replaces the dashboard for sessions that cannot see any module.
const (
	HomeView  = "pages/home.html"
	HomeLabel = "Welcome"
)

// Pages returns every registered page in sidebar order.
func Pages() []PageInfo {
	out := make([]PageInfo, len(pages))
	copy(out, pages)
	return out
}

// Lookup returns the registry entry for p.
func (p Page) Lookup() (PageInfo, bool) {
	info, ok := pageIndex[p]
	return info, ok
}

// Valid reports whether p is a registered page.
func (p Page) Valid() bool {
	_, ok := pageIndex[p]
	return ok
}

// ParsePage converts a raw id into a registered Page.
func ParsePage(raw string) (Page, error) {
	p := Page(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown page %q", raw)
	}
	return p, nil
}

// Store identifies a logical data module.
type Store string

const (
	Bookings         Store = "bookings"
	Buyers           Store = "buyers"
	EmbReports       Store = "emb_reports"
	BuyerNotesStore  Store = "buyer_notes"
	MerchBuyers      Store = "merch_buyers"
	MerchPackingList Store = "merch_packing_list"
	MyTasksStore     Store = "my_tasks"
	MyDiaryStore     Store = "my_diary"
)

// Scope decides how a store's physical path is derived.
type Scope int

const (
	// Tenant stores are namespaced per user for non-admin sessions.
	Tenant Scope = iota
	// Shared stores resolve to one root collection for every role.
	Shared
	// Personal stores hold private per-user data.
	Personal
)

func (s Scope) String() string {
	switch s {
	case Shared:
		return "shared"
	case Personal:
		return "personal"
	default:
		return "tenant"
	}
}

// StoreInfo is the static data attached to a Store.
type StoreInfo struct {
	Store Store
	Root  string
	Scope Scope
	// OwnerScoped stores stamp createdBy on write and filter rows by it on read.
	OwnerScoped bool
}

var stores = map[Store]StoreInfo{
	Bookings:         {Store: Bookings, Root: "bookings", Scope: Shared, OwnerScoped: true},
	Buyers:           {Store: Buyers, Root: "buyers", Scope: Shared},
	EmbReports:       {Store: EmbReports, Root: "emb job storage", Scope: Shared},
	BuyerNotesStore:  {Store: BuyerNotesStore, Root: "merchandise_items", Scope: Shared, OwnerScoped: true},
	MerchBuyers:      {Store: MerchBuyers, Root: "merchandise_buyers", Scope: Tenant},
	MerchPackingList: {Store: MerchPackingList, Root: "merchandise_packing_list", Scope: Tenant},
	MyTasksStore:     {Store: MyTasksStore, Root: "personal_tasks", Scope: Personal},
	MyDiaryStore:     {Store: MyDiaryStore, Root: "personal_diary", Scope: Personal},
}

// Lookup returns the registry entry for s. For an unregistered store the raw id
// is used as root with tenant scope and ok is false.
func (s Store) Lookup() (StoreInfo, bool) {
	info, ok := stores[s]
	if !ok {
		return StoreInfo{Store: s, Root: string(s), Scope: Tenant}, false
	}
	return info, true
}

// System collections addressed directly, never through the path resolver.
const (
	UsersCollection    = "users"
	ProfilesCollection = "user_profiles"
	SettingsCollection = "system_settings"
	NoticesCollection  = "notices"
)
