package catalog

// Product describes one sellable digital product. Prices are whole HUF.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	OriginalPrice float64
	Currency      string
	IsGift        bool
	IsUpsell      bool
}

// products is the static catalog. The payment processor is the source
// of truth for live prices; this table only feeds display names and
// gift metadata.
var products = map[string]Product{
	"ai_analysis_pdf": {
		ID:       "ai_analysis_pdf",
		Name:     "Személyre Szabott Csakra Elemzés PDF",
		Price:    990,
		Currency: "HUF",
	},
	"workbook_30day": {
		ID:            "workbook_30day",
		Name:          "30 Napos Csakra Munkafüzet",
		Price:         3990,
		OriginalPrice: 9990,
		Currency:      "HUF",
		IsUpsell:      true,
	},
	"gift_bundle_full": {
		ID:            "gift_bundle_full",
		Name:          "Ajándék Csomag - AI Elemzés + 30 Napos Munkafüzet",
		Price:         2988,
		OriginalPrice: 4980,
		Currency:      "HUF",
		IsGift:        true,
		IsUpsell:      true,
	},
	"gift_ai_only": {
		ID:            "gift_ai_only",
		Name:          "Ajándék AI Elemzés PDF",
		Price:         594,
		OriginalPrice: 990,
		Currency:      "HUF",
		IsGift:        true,
		IsUpsell:      true,
	},
	"detailed_pdf": {
		ID:       "detailed_pdf",
		Name:     "Részletes Csakra Elemzés PDF",
		Price:    4990,
		Currency: "HUF",
	},
	"meditations": {
		ID:       "meditations",
		Name:     "7 Meditációs Audiófájl Csomag",
		Price:    9990,
		Currency: "HUF",
	},
	"bundle": {
		ID:       "bundle",
		Name:     "Teljes Csakra Csomag (PDF + Meditációk)",
		Price:    12990,
		Currency: "HUF",
	},
	"ebook": {
		ID:       "ebook",
		Name:     "Csakra Kézikönyv E-book",
		Price:    2990,
		Currency: "HUF",
	},
}

// Get returns the product for id.
func Get(id string) (Product, bool) {
	p, ok := products[id]
	return p, ok
}

// Name resolves a product display name, falling back to the raw id
// for unknown products.
func Name(id string) string {
	if p, ok := products[id]; ok {
		return p.Name
	}
	return id
}
