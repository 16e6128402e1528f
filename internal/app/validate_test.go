package app

import (
	"errors"
	"net/url"
	"testing"
)

func TestParsePublicationAppliesDefaults(t *testing.T) {
	values := url.Values{}
	values.Set("titulo", "  Casa Linda  ")
	values.Set("precio", "150000")
	values.Set("direccion_completa", "Calle 1")

	req, err := ParsePublication(7, values)
	if err != nil {
		t.Fatalf("parse publication: %v", err)
	}
	if req.PublisherID != 7 {
		t.Fatalf("publisherID = %d, want 7", req.PublisherID)
	}
	if req.Title != "Casa Linda" {
		t.Fatalf("title = %q, want trimmed %q", req.Title, "Casa Linda")
	}
	if req.Price != 150000 {
		t.Fatalf("price = %v, want 150000", req.Price)
	}
	if req.OperationType != "Venta" {
		t.Fatalf("operationType = %q, want Venta", req.OperationType)
	}
	if req.PropertyType != "Casa" {
		t.Fatalf("propertyType = %q, want Casa", req.PropertyType)
	}
	if req.City != "Ciudad" || req.Country != "México" {
		t.Fatalf("city/country = %q/%q, want defaults", req.City, req.Country)
	}
	if req.Currency != "MXN" {
		t.Fatalf("currency = %q, want MXN", req.Currency)
	}
	if req.Bathrooms != 1 || req.Bedrooms != 1 {
		t.Fatalf("bathrooms/bedrooms = %d/%d, want 1/1", req.Bathrooms, req.Bedrooms)
	}
	if req.AreaM2 != 50 {
		t.Fatalf("areaM2 = %v, want 50", req.AreaM2)
	}
	if req.Description != "" {
		t.Fatalf("description = %q, want empty", req.Description)
	}
}

func TestParsePublicationCurrencyIsFixed(t *testing.T) {
	values := url.Values{}
	values.Set("titulo", "Depa")
	values.Set("precio", "9000")
	values.Set("direccion_completa", "Av. Siempre Viva 742")
	values.Set("moneda", "USD")

	req, err := ParsePublication(1, values)
	if err != nil {
		t.Fatalf("parse publication: %v", err)
	}
	if req.Currency != "MXN" {
		t.Fatalf("currency = %q, want MXN regardless of input", req.Currency)
	}
}

func TestParsePublicationReportsAllMissingRequiredFields(t *testing.T) {
	values := url.Values{}
	values.Set("titulo", "   ")
	values.Set("precio", "abc")

	_, err := ParsePublication(1, values)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]bool{"titulo": true, "precio": true, "direccion_completa": true}
	if len(ve.Fields) != len(want) {
		t.Fatalf("fields = %v, want exactly %v", ve.Fields, want)
	}
	for _, f := range ve.Fields {
		if !want[f] {
			t.Fatalf("unexpected failing field %q in %v", f, ve.Fields)
		}
	}
}

func TestParsePublicationRejectsNonPositivePrice(t *testing.T) {
	for _, price := range []string{"0", "-100", ""} {
		values := url.Values{}
		values.Set("titulo", "Casa")
		values.Set("precio", price)
		values.Set("direccion_completa", "Calle 1")

		_, err := ParsePublication(1, values)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("precio=%q: expected ValidationError, got %v", price, err)
		}
		if len(ve.Fields) != 1 || ve.Fields[0] != "precio" {
			t.Fatalf("precio=%q: failing fields = %v, want [precio]", price, ve.Fields)
		}
	}
}

func TestParsePublicationOverridesDefaults(t *testing.T) {
	values := url.Values{}
	values.Set("titulo", "Loft Centro")
	values.Set("precio", "12500.50")
	values.Set("direccion_completa", "Calle 2")
	values.Set("tipo_operacion", "Renta")
	values.Set("tipo_inmueble", "Departamento")
	values.Set("ciudad", "Guadalajara")
	values.Set("pais", "MX")
	values.Set("num_banos", "2")
	values.Set("num_dormitorios", "3")
	values.Set("metros_cuadrados", "82.5")
	values.Set("descripcion", "céntrico")

	req, err := ParsePublication(1, values)
	if err != nil {
		t.Fatalf("parse publication: %v", err)
	}
	if req.OperationType != "Renta" || req.PropertyType != "Departamento" {
		t.Fatalf("operation/type = %q/%q", req.OperationType, req.PropertyType)
	}
	if req.City != "Guadalajara" || req.Country != "MX" {
		t.Fatalf("city/country = %q/%q", req.City, req.Country)
	}
	if req.Bathrooms != 2 || req.Bedrooms != 3 || req.AreaM2 != 82.5 {
		t.Fatalf("banos/dormitorios/m2 = %d/%d/%v", req.Bathrooms, req.Bedrooms, req.AreaM2)
	}
	if req.Price != 12500.50 {
		t.Fatalf("price = %v, want 12500.50", req.Price)
	}
	if req.Description != "céntrico" {
		t.Fatalf("description = %q", req.Description)
	}
}

func TestParsePublicationRejectsNegativeCounts(t *testing.T) {
	values := url.Values{}
	values.Set("titulo", "Casa")
	values.Set("precio", "1000")
	values.Set("direccion_completa", "Calle 1")
	values.Set("num_banos", "-1")

	_, err := ParsePublication(1, values)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
