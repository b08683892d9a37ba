package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

func fptr(v float64) *float64 { return &v }

func yearsAgo(n int) string {
	return time.Now().UTC().AddDate(-n, 0, 0).Format(dateLayout)
}

func today() string {
	return time.Now().UTC().Format(dateLayout)
}

var freeEmailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

func personSchema() *Schema {
	return &Schema{
		Kind:        "person",
		Description: "User/person profiles with personal information, demographics and employment",
		Fields: []FieldSpec{
			{Name: "id", Type: FieldIdentifier},
			{Name: "first_name", Type: FieldShortText, Hint: "first_name"},
			{Name: "last_name", Type: FieldShortText, Hint: "last_name"},
			{Name: "full_name", Type: FieldShortText, Hint: "first_name"},
			{Name: "email", Type: FieldEmail},
			{Name: "phone", Type: FieldShortText, Hint: "phone"},
			{Name: "date_of_birth", Type: FieldDate, From: yearsAgo(80), To: yearsAgo(18)},
			{Name: "age", Type: FieldInteger, Min: fptr(18), Max: fptr(80)},
			{Name: "gender", Type: FieldChoice, Choices: []string{"Male", "Female", "Non-binary", "Prefer not to say"}},
			{Name: "street_address", Type: FieldShortText, Hint: "street"},
			{Name: "city", Type: FieldShortText, Hint: "city"},
			{Name: "state", Type: FieldShortText, Hint: "state"},
			{Name: "postal_code", Type: FieldShortText, Hint: "postal_code"},
			{Name: "country", Type: FieldChoice, Choices: []string{"United States"}},
			{Name: "username", Type: FieldShortText, Hint: "username"},
			{Name: "job_title", Type: FieldShortText, Hint: "job_title"},
			{Name: "company", Type: FieldShortText, Hint: "company"},
			{Name: "salary", Type: FieldDecimal, Min: fptr(25000), Max: fptr(250000), Precision: 2},
			{Name: "created_at", Type: FieldTimestamp, From: yearsAgo(5), To: today()},
			{Name: "is_active", Type: FieldBoolean, TrueRate: 0.9},
		},
		Derive: derivePerson,
	}
}

func derivePerson(f *gofakeit.Faker, r *Record) {
	first, _ := r.Get("first_name").(string)
	last, _ := r.Get("last_name").(string)
	r.Set("full_name", first+" "+last)
	r.Set("email", fmt.Sprintf("%s.%s@%s",
		strings.ToLower(first), strings.ToLower(last), f.RandomString(freeEmailDomains)))

	if dob, ok := r.Get("date_of_birth").(time.Time); ok {
		now := time.Now().UTC()
		age := now.Year() - dob.Year()
		if now.YearDay() < dob.YearDay() {
			age--
		}
		r.Set("age", int64(age))
	}
}

type catalogProduct struct {
	name      string
	category  string
	basePrice float64
}

var productCatalog = []catalogProduct{
	{"Wireless Earbuds", "Electronics", 79.99},
	{"Smart Watch", "Electronics", 199.99},
	{"Laptop Stand", "Office", 34.99},
	{"Mechanical Keyboard", "Electronics", 129.99},
	{"Desk Lamp", "Office", 24.99},
	{"Yoga Mat", "Sports", 29.99},
	{"Running Shoes", "Sports", 89.99},
	{"Water Bottle", "Sports", 14.99},
	{"Coffee Maker", "Kitchen", 69.99},
	{"Chef Knife", "Kitchen", 49.99},
	{"Cast Iron Skillet", "Kitchen", 39.99},
	{"Novel - Bestseller", "Books", 16.99},
	{"Cookbook", "Books", 27.99},
	{"Board Game", "Toys", 34.99},
	{"Building Blocks Set", "Toys", 54.99},
}

var productNames = func() []string {
	names := make([]string, len(productCatalog))
	for i, p := range productCatalog {
		names[i] = p.name
	}
	return names
}()

var productByName = func() map[string]catalogProduct {
	m := make(map[string]catalogProduct, len(productCatalog))
	for _, p := range productCatalog {
		m[p.name] = p
	}
	return m
}()

var taxRates = []float64{0.0, 0.05, 0.06, 0.07, 0.08, 0.0825, 0.1}

func ecommerceSchema() *Schema {
	return &Schema{
		Kind:        "ecommerce",
		Description: "E-commerce order transactions with products, amounts and fulfilment status",
		Fields: []FieldSpec{
			{Name: "order_id", Type: FieldIdentifier, Hint: "ORD"},
			{Name: "transaction_id", Type: FieldIdentifier, Hint: "TXN"},
			{Name: "customer_id", Type: FieldReference, PoolSize: 200},
			{Name: "customer_email", Type: FieldEmail},
			{Name: "product_id", Type: FieldReference, Hint: "SKU", PoolSize: 50},
			{Name: "product_name", Type: FieldChoice, Choices: productNames},
			{Name: "product_category", Type: FieldShortText},
			{Name: "quantity", Type: FieldInteger, Min: fptr(1), Max: fptr(5)},
			{Name: "unit_price", Type: FieldDecimal, Min: fptr(5), Max: fptr(500), Precision: 2},
			{Name: "discount_percent", Type: FieldInteger, Min: fptr(0), Max: fptr(25)},
			{Name: "subtotal", Type: FieldDecimal, Min: fptr(0), Max: fptr(3000), Precision: 2},
			{Name: "tax_amount", Type: FieldDecimal, Min: fptr(0), Max: fptr(300), Precision: 2},
			{Name: "shipping_cost", Type: FieldDecimal, Min: fptr(0), Max: fptr(35), Precision: 2},
			{Name: "total_amount", Type: FieldDecimal, Min: fptr(0), Max: fptr(3500), Precision: 2},
			{Name: "currency", Type: FieldChoice, Choices: []string{"USD"}},
			{Name: "payment_method", Type: FieldChoice,
				Choices: []string{"Credit Card", "Debit Card", "PayPal", "Apple Pay", "Google Pay", "Gift Card"}},
			{Name: "order_status", Type: FieldChoice,
				Choices: []string{"Pending", "Confirmed", "Shipped", "Delivered", "Cancelled", "Refunded"},
				Weights: []float64{5, 10, 15, 55, 10, 5}},
			{Name: "shipping_method", Type: FieldChoice,
				Choices: []string{"Standard", "Express", "Next Day"}},
			{Name: "shipping_address", Type: FieldLongText, Hint: "address"},
			{Name: "order_date", Type: FieldTimestamp, From: yearsAgo(1), To: today()},
			{Name: "shipped_date", Type: FieldTimestamp, Nullable: true, From: yearsAgo(1), To: today()},
			{Name: "delivered_date", Type: FieldTimestamp, Nullable: true, From: yearsAgo(1), To: today()},
		},
		Derive: deriveEcommerce,
	}
}

func deriveEcommerce(f *gofakeit.Faker, r *Record) {
	product := productByName[r.Get("product_name").(string)]
	r.Set("product_category", product.category)

	unitPrice := roundTo(product.basePrice*f.Float64Range(0.9, 1.1), 2)
	r.Set("unit_price", unitPrice)

	// 30% of orders carry a discount
	discount := int64(0)
	if f.Float64Range(0, 1) < 0.3 {
		discount = int64(f.Number(1, 5)) * 5
	}
	r.Set("discount_percent", discount)

	qty := r.Get("quantity").(int64)
	subtotal := roundTo(unitPrice*float64(qty)*(1-float64(discount)/100), 2)
	r.Set("subtotal", subtotal)

	taxAmount := roundTo(subtotal*taxRates[f.Number(0, len(taxRates)-1)], 2)
	r.Set("tax_amount", taxAmount)

	shippingMethod := r.Get("shipping_method").(string)
	var shippingCost float64
	switch {
	case subtotal >= 100:
		shippingMethod = "Free Shipping"
		shippingCost = 0
	case shippingMethod == "Next Day":
		shippingCost = roundTo(f.Float64Range(24.99, 34.99), 2)
	case shippingMethod == "Express":
		shippingCost = roundTo(f.Float64Range(12.99, 19.99), 2)
	default:
		shippingCost = roundTo(f.Float64Range(4.99, 9.99), 2)
	}
	r.Set("shipping_method", shippingMethod)
	r.Set("shipping_cost", shippingCost)
	r.Set("total_amount", roundTo(subtotal+taxAmount+shippingCost, 2))

	orderDate := r.Get("order_date").(time.Time)
	status := r.Get("order_status").(string)
	switch status {
	case "Shipped":
		r.Set("shipped_date", orderDate.AddDate(0, 0, f.Number(1, 3)))
		r.Set("delivered_date", nil)
	case "Delivered":
		shipped := orderDate.AddDate(0, 0, f.Number(1, 3))
		r.Set("shipped_date", shipped)
		deliveryDays := f.Number(5, 10)
		switch shippingMethod {
		case "Next Day":
			deliveryDays = 2
		case "Express":
			deliveryDays = 4
		}
		r.Set("delivered_date", shipped.AddDate(0, 0, deliveryDays))
	default:
		r.Set("shipped_date", nil)
		r.Set("delivered_date", nil)
	}
}

func companySchema() *Schema {
	return &Schema{
		Kind:        "company",
		Description: "Company profiles with industry, size, financials and contact details",
		Fields: []FieldSpec{
			{Name: "id", Type: FieldIdentifier},
			{Name: "name", Type: FieldShortText, Hint: "company"},
			{Name: "industry", Type: FieldChoice,
				Choices: []string{"Technology", "Healthcare", "Finance", "Retail", "Manufacturing",
					"Education", "Energy", "Transportation", "Media", "Hospitality"}},
			{Name: "founded_date", Type: FieldDate, From: yearsAgo(70), To: yearsAgo(1)},
			{Name: "employee_count", Type: FieldInteger, Min: fptr(1), Max: fptr(50000)},
			{Name: "annual_revenue", Type: FieldDecimal, Min: fptr(100000), Max: fptr(500000000), Precision: 2},
			{Name: "website", Type: FieldShortText, Hint: "url"},
			{Name: "email", Type: FieldEmail},
			{Name: "phone", Type: FieldShortText, Hint: "phone"},
			{Name: "street_address", Type: FieldShortText, Hint: "street"},
			{Name: "city", Type: FieldShortText, Hint: "city"},
			{Name: "state", Type: FieldShortText, Hint: "state"},
			{Name: "postal_code", Type: FieldShortText, Hint: "postal_code"},
			{Name: "country", Type: FieldChoice, Choices: []string{"United States"}},
			{Name: "description", Type: FieldLongText},
			{Name: "is_public", Type: FieldBoolean, TrueRate: 0.3},
			{Name: "stock_symbol", Type: FieldShortText, Nullable: true},
		},
		Derive: deriveCompany,
	}
}

func deriveCompany(f *gofakeit.Faker, r *Record) {
	isPublic, _ := r.Get("is_public").(bool)
	if !isPublic {
		r.Set("stock_symbol", nil)
		return
	}
	r.Set("stock_symbol", strings.ToUpper(f.LetterN(uint(f.Number(3, 4)))))
}
