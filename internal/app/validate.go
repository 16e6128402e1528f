package app

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"casaya/pkg/domain"
)

// Defaults applied to optional submission fields. Currency is fixed: the
// platform only supports MXN at creation time.
const (
	defaultOperationType = "Venta"
	defaultPropertyType  = "Casa"
	defaultCity          = "Ciudad"
	defaultCountry       = "México"
	fixedCurrency        = "MXN"
	defaultBathrooms     = 1
	defaultBedrooms      = 1
	defaultAreaM2        = 50
)

// PublicationRequest is a validated, defaulted property submission ready
// for persistence. PublisherID comes from the authenticated session, never
// from the form.
type PublicationRequest struct {
	PublisherID   uint
	Title         string
	Description   string
	OperationType string
	PropertyType  string
	Price         float64
	Currency      string
	Address       string
	City          string
	Country       string
	Bathrooms     int
	Bedrooms      int
	AreaM2        float64
}

// ParsePublication validates the scalar submission fields and applies the
// documented defaults. It is pure: no storage or database access. All
// failing required fields are reported together in one ValidationError.
func ParsePublication(publisherID uint, values url.Values) (PublicationRequest, error) {
	req := PublicationRequest{
		PublisherID:   publisherID,
		Title:         strings.TrimSpace(values.Get("titulo")),
		Description:   values.Get("descripcion"),
		OperationType: fieldOrDefault(values, "tipo_operacion", defaultOperationType),
		PropertyType:  fieldOrDefault(values, "tipo_inmueble", defaultPropertyType),
		Currency:      fixedCurrency,
		Address:       strings.TrimSpace(values.Get("direccion_completa")),
		City:          fieldOrDefault(values, "ciudad", defaultCity),
		Country:       fieldOrDefault(values, "pais", defaultCountry),
		Bathrooms:     intOrDefault(values, "num_banos", defaultBathrooms),
		Bedrooms:      intOrDefault(values, "num_dormitorios", defaultBedrooms),
		AreaM2:        floatOrDefault(values, "metros_cuadrados", defaultAreaM2),
	}

	var bad []string
	if req.Title == "" {
		bad = append(bad, "titulo")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(values.Get("precio")), 64)
	if err != nil || price <= 0 {
		bad = append(bad, "precio")
	}
	req.Price = price
	if req.Address == "" {
		bad = append(bad, "direccion_completa")
	}
	if req.Bathrooms < 0 {
		bad = append(bad, "num_banos")
	}
	if req.Bedrooms < 0 {
		bad = append(bad, "num_dormitorios")
	}
	if req.AreaM2 < 0 {
		bad = append(bad, "metros_cuadrados")
	}
	if len(bad) > 0 {
		return PublicationRequest{}, &ValidationError{Fields: bad}
	}
	return req, nil
}

// property builds the entity to insert; status and publication timestamp
// are fixed at creation.
func (r PublicationRequest) property(now time.Time) domain.Property {
	return domain.Property{
		PublisherID:   r.PublisherID,
		Title:         r.Title,
		Description:   r.Description,
		OperationType: r.OperationType,
		PropertyType:  r.PropertyType,
		Price:         r.Price,
		Currency:      r.Currency,
		Address:       r.Address,
		City:          r.City,
		Country:       r.Country,
		Bathrooms:     r.Bathrooms,
		Bedrooms:      r.Bedrooms,
		AreaM2:        r.AreaM2,
		Status:        domain.StatusActive,
		PublishedAt:   now,
	}
}

func fieldOrDefault(values url.Values, name, fallback string) string {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return fallback
	}
	return v
}

func intOrDefault(values url.Values, name string, fallback int) int {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatOrDefault(values url.Values, name string, fallback float64) float64 {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
