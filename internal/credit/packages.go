package credit

// Package is a purchasable credit bundle. Prices are in IRR Toman.
type Package struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Credits     int64  `json:"credits"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

var Packages = []Package{
	{ID: "basic", Name: "پایه", Credits: 100, Price: 50000, Description: "مناسب برای شروع"},
	{ID: "standard", Name: "استاندارد", Credits: 500, Price: 200000, Description: "محبوب‌ترین"},
	{ID: "premium", Name: "حرفه‌ای", Credits: 1500, Price: 500000, Description: "بهترین ارزش"},
	{ID: "enterprise", Name: "سازمانی", Credits: 5000, Price: 1500000, Description: "برای تیم‌ها"},
}

// FindPackage returns the package with the given id, or false.
func FindPackage(id string) (Package, bool) {
	for _, p := range Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
