package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/internal/pkg/memberpress"
)

const testIBAN = "NL91ABNA0417164300"

func testFilters(t *testing.T) (*Filters, *memSubscriptionRepo, *memCustomerRepo, *fakeGateway, *bytes.Buffer) {
	t.Helper()

	subs := newMemSubscriptionRepo()
	customers := newMemCustomerRepo()
	configs := &memConfigRepo{configs: []*models.GatewayConfig{
		{ID: 1, Name: "Mollie", Mode: models.GatewayModeTest, IsDefault: true},
	}}
	gateway := &fakeGateway{}

	var buf bytes.Buffer
	f := NewFilters(NewRunLog(&buf), subs, configs, customers,
		func(cfg *models.GatewayConfig) Gateway { return gateway }, nil)
	return f, subs, customers, gateway, &buf
}

func TestFilterAmount(t *testing.T) {
	f, _, _, _, _ := testFilters(t)

	row := NewRow()
	row.Set(FieldAmount, "1.250,75")
	row.Set(FieldCurrency, "eur")

	if err := f.Amount(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}

	amount, _ := row.Value(FieldAmount)
	dec, ok := amount.(decimal.Decimal)
	if !ok {
		t.Fatalf("amount type = %T, want decimal.Decimal", amount)
	}
	if !dec.Equal(decimal.RequireFromString("1250.75")) {
		t.Errorf("amount = %s, want 1250.75", dec)
	}
	if row.String(FieldCurrency) != "EUR" {
		t.Errorf("currency = %q, want EUR", row.String(FieldCurrency))
	}
}

func TestFilterConfigID(t *testing.T) {
	f, _, _, _, _ := testFilters(t)

	row := NewRow()
	row.Set(FieldConfigID, "5")
	if err := f.ConfigID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if got := row.Uint(FieldConfigID); got != 5 {
		t.Errorf("numeric config id must pass through, got %d", got)
	}

	row = NewRow()
	row.Set(FieldConfigID, "")
	if err := f.ConfigID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if got := row.Uint(FieldConfigID); got != 1 {
		t.Errorf("blank config id must resolve to the default, got %d", got)
	}
}

func TestFilterSubscriptionID(t *testing.T) {
	f, subs, _, _, buf := testFilters(t)

	existing := &models.Subscription{Source: "import", SourceID: "ext-9"}
	if err := subs.Save(existing); err != nil {
		t.Fatal(err)
	}

	row := NewRow()
	row.Set(FieldSubscriptionID, "")
	row.Set(FieldSource, "import")
	row.Set(FieldSourceID, "ext-9")

	if err := f.SubscriptionID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if got := row.Uint(FieldSubscriptionID); got != existing.ID {
		t.Errorf("resolved id = %d, want %d", got, existing.ID)
	}
	if !strings.Contains(buf.String(), "resolved subscription") {
		t.Errorf("missing resolution log: %s", buf.String())
	}

	// An explicit id wins over the source pair.
	row = NewRow()
	row.Set(FieldSubscriptionID, "42")
	row.Set(FieldSource, "import")
	row.Set(FieldSourceID, "ext-9")
	if err := f.SubscriptionID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if got := row.String(FieldSubscriptionID); got != "42" {
		t.Errorf("explicit id overwritten to %q", got)
	}

	// Unknown pair leaves the field blank for the create path.
	row = NewRow()
	row.Set(FieldSubscriptionID, "")
	row.Set(FieldSource, "import")
	row.Set(FieldSourceID, "nope")
	if err := f.SubscriptionID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if row.String(FieldSubscriptionID) != "" {
		t.Error("unknown source pair must not resolve")
	}
}

func TestFilterMollieCustomerID(t *testing.T) {
	f, _, customers, gateway, buf := testFilters(t)

	row := NewRow()
	row.Set(FieldMollieCustomerID, "")
	row.Set(FieldEmail, "jan@example.com")
	row.Set(FieldConsumerName, "Jan Jansen")
	row.Set(FieldConsumerIBAN, testIBAN)

	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}

	if got := row.String(FieldMollieCustomerID); got != "cst_1" {
		t.Errorf("customer id = %q, want cst_1", got)
	}
	if got := row.String(FieldMollieMandateID); got != "mdt_1" {
		t.Errorf("mandate id = %q, want mdt_1", got)
	}
	if len(gateway.customers) != 1 || gateway.customers[0].Email != "jan@example.com" {
		t.Errorf("gateway customer calls = %+v", gateway.customers)
	}
	if len(gateway.mandates) != 1 || gateway.mandates[0].ConsumerAccount != testIBAN {
		t.Errorf("gateway mandate calls = %+v", gateway.mandates)
	}

	// Local mirror row stored.
	mirror, err := customers.GetByMollieID("cst_1")
	if err != nil {
		t.Fatal(err)
	}
	if mirror.Mode != models.GatewayModeTest {
		t.Errorf("mirror mode = %q", mirror.Mode)
	}

	// Second row for the same email reuses the mirror instead of creating a
	// second remote customer.
	row = NewRow()
	row.Set(FieldMollieCustomerID, "")
	row.Set(FieldEmail, "jan@example.com")
	row.Set(FieldConsumerName, "Jan Jansen")
	row.Set(FieldConsumerIBAN, testIBAN)

	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if len(gateway.customers) != 1 {
		t.Errorf("expected customer reuse, got %d create calls", len(gateway.customers))
	}
	if got := row.String(FieldMollieCustomerID); got != "cst_1" {
		t.Errorf("reused customer id = %q", got)
	}
	if !strings.Contains(buf.String(), "reusing gateway customer `cst_1`") {
		t.Errorf("missing reuse log: %s", buf.String())
	}
}

func TestFilterMollieCustomerIDSkips(t *testing.T) {
	f, _, _, gateway, buf := testFilters(t)

	// Already filled in: nothing to do.
	row := NewRow()
	row.Set(FieldMollieCustomerID, "cst_existing")
	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if len(gateway.customers) != 0 {
		t.Error("filled customer id must not trigger gateway calls")
	}

	// Missing consumer data: logged skip.
	row = NewRow()
	row.Set(FieldMollieCustomerID, "")
	row.Set(FieldEmail, "jan@example.com")
	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "consumer name and bank account are required") {
		t.Errorf("missing skip log: %s", buf.String())
	}

	// Invalid bank account: logged skip.
	row = NewRow()
	row.Set(FieldMollieCustomerID, "")
	row.Set(FieldEmail, "jan@example.com")
	row.Set(FieldConsumerName, "Jan Jansen")
	row.Set(FieldConsumerIBAN, "not-an-iban")
	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "not a valid bank account") {
		t.Errorf("missing iban log: %s", buf.String())
	}
	if len(gateway.customers) != 0 {
		t.Error("invalid consumer data must not reach the gateway")
	}
}

func TestFilterMollieCustomerIDGatewayFailure(t *testing.T) {
	f, _, _, gateway, buf := testFilters(t)
	gateway.failing = true

	row := NewRow()
	row.Set(FieldMollieCustomerID, "")
	row.Set(FieldEmail, "jan@example.com")
	row.Set(FieldConsumerName, "Jan Jansen")
	row.Set(FieldConsumerIBAN, testIBAN)

	// A gateway outage degrades to a logged no-op, the row continues.
	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if row.String(FieldMollieCustomerID) != "" {
		t.Error("failed creation must leave the field blank")
	}
	if !strings.Contains(buf.String(), "could not create gateway customer") {
		t.Errorf("missing failure log: %s", buf.String())
	}
}

func TestFilterMemberPressSubscriptionID(t *testing.T) {
	subs := newMemSubscriptionRepo()
	customers := newMemCustomerRepo()
	configs := &memConfigRepo{}
	mepr := &fakeMeprSource{
		subscriptions: map[string]*memberpress.Subscription{
			"77": {ID: "77", UserID: 12, ProductID: "3", Status: memberpress.StatusActive, CreatedAt: time.Now()},
		},
	}

	var buf bytes.Buffer
	f := NewFilters(NewRunLog(&buf), subs, configs, customers, nil, mepr)

	row := NewRow()
	row.Set(FieldMemberPressSubscriptionID, "77")
	if err := f.MemberPressSubscriptionID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if got := row.Uint(FieldUserID); got != 12 {
		t.Errorf("user id = %d, want 12", got)
	}
	if !strings.Contains(buf.String(), "add item `user_id` with value `12`") {
		t.Errorf("missing adoption log: %s", buf.String())
	}
}

func TestFilterMemberPressSubscriptionIDUnavailable(t *testing.T) {
	subs := newMemSubscriptionRepo()
	var buf bytes.Buffer
	f := NewFilters(NewRunLog(&buf), subs, &memConfigRepo{}, newMemCustomerRepo(), nil, nil)

	row := NewRow()
	row.Set(FieldMemberPressSubscriptionID, "77")
	if err := f.MemberPressSubscriptionID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if row.Has(FieldUserID) {
		t.Error("unavailable MemberPress must not touch the row")
	}
	if !strings.Contains(buf.String(), "MemberPress is not available") {
		t.Errorf("missing warning: %s", buf.String())
	}
}

func TestFilterMollieCustomerIDWithoutGateway(t *testing.T) {
	subs := newMemSubscriptionRepo()
	configs := &memConfigRepo{configs: []*models.GatewayConfig{
		{ID: 1, Name: "Mollie", Mode: models.GatewayModeTest, IsDefault: true},
	}}

	var buf bytes.Buffer
	f := NewFilters(NewRunLog(&buf), subs, configs, newMemCustomerRepo(), nil, nil)

	row := NewRow()
	row.Set(FieldMollieCustomerID, "")
	row.Set(FieldEmail, "jan@example.com")
	row.Set(FieldConsumerName, "Jan Jansen")
	row.Set(FieldConsumerIBAN, testIBAN)

	// No gateway wired: logged skip, the row continues untouched.
	if err := f.MollieCustomerID(context.Background(), row, nil); err != nil {
		t.Fatal(err)
	}
	if row.String(FieldMollieCustomerID) != "" {
		t.Error("missing gateway must leave the customer field blank")
	}
	if !strings.Contains(buf.String(), "no payment gateway configured") {
		t.Errorf("missing skip log: %s", buf.String())
	}
}
