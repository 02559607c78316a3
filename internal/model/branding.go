package model

// BrandingKey is the settings key the branding record is stored under.
const BrandingKey = "branding"

// Branding is the application look-and-feel configuration.
type Branding struct {
	Title         string `json:"title"`
	PrimaryColor  string `json:"primary_color"`
	LogoURL       string `json:"logo_url,omitempty"`
	Description   string `json:"description,omitempty"`
	FooterText    string `json:"footer_text,omitempty"`
	CopyrightText string `json:"copyright_text,omitempty"`
}

// BrandingPatch holds the fields of a partial branding update.
type BrandingPatch struct {
	Title         *string `json:"title,omitempty"`
	PrimaryColor  *string `json:"primary_color,omitempty"`
	LogoURL       *string `json:"logo_url,omitempty"`
	Description   *string `json:"description,omitempty"`
	FooterText    *string `json:"footer_text,omitempty"`
	CopyrightText *string `json:"copyright_text,omitempty"`
}

// DefaultBranding returns the branding used until one is stored.
func DefaultBranding() Branding {
	return Branding{
		Title:         "SmartWarehouse Pro",
		PrimaryColor:  "#4f46e5",
		Description:   "Integrated warehouse management with real-time inventory control.",
		FooterText:    "Cloud Warehouse v1.1",
		CopyrightText: "© 2026 Enterprise Resource",
	}
}

// Merge returns b with every set field of p applied.
func (b Branding) Merge(p BrandingPatch) Branding {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.PrimaryColor != nil {
		b.PrimaryColor = *p.PrimaryColor
	}
	if p.LogoURL != nil {
		b.LogoURL = *p.LogoURL
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.FooterText != nil {
		b.FooterText = *p.FooterText
	}
	if p.CopyrightText != nil {
		b.CopyrightText = *p.CopyrightText
	}
	return b
}
