package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JorisBrandt/PayImport/app/models"
)

// Field identifies a known import column. The set is closed: filters and
// actions can only be bound for enumerated fields, unknown column names in
// the input simply never fire a handler.
type Field string

const (
	FieldSubscriptionID            Field = "subscription_id"
	FieldMemberPressSubscriptionID Field = "memberpress_subscription_id"
	FieldSource                    Field = "source"
	FieldSourceID                  Field = "source_id"
	FieldDescription               Field = "description"
	FieldStatus                    Field = "status"
	FieldEmail                     Field = "email"
	FieldUserID                    Field = "user_id"
	FieldConsumerName              Field = "consumer_name"
	FieldConsumerIBAN              Field = "consumer_iban"
	FieldAmount                    Field = "amount"
	FieldCurrency                  Field = "currency"
	FieldInterval                  Field = "interval"
	FieldFrequency                 Field = "frequency"
	FieldStartDate                 Field = "start_date"
	FieldConfigID                  Field = "config_id"
	FieldPaymentMethod             Field = "payment_method"
	FieldMollieCustomerID          Field = "mollie_customer_id"
	FieldMollieMandateID           Field = "mollie_mandate_id"
)

var knownFields = map[Field]struct{}{
	FieldSubscriptionID:            {},
	FieldMemberPressSubscriptionID: {},
	FieldSource:                    {},
	FieldSourceID:                  {},
	FieldDescription:               {},
	FieldStatus:                    {},
	FieldEmail:                     {},
	FieldUserID:                    {},
	FieldConsumerName:              {},
	FieldConsumerIBAN:              {},
	FieldAmount:                    {},
	FieldCurrency:                  {},
	FieldInterval:                  {},
	FieldFrequency:                 {},
	FieldStartDate:                 {},
	FieldConfigID:                  {},
	FieldPaymentMethod:             {},
	FieldMollieCustomerID:          {},
	FieldMollieMandateID:           {},
}

// KnownField reports whether the field is part of the closed field set.
func KnownField(f Field) bool {
	_, ok := knownFields[f]
	return ok
}

// ParseInterval parses a row interval like "1 month" or "2 weeks" into an
// interval count and canonical unit.
func ParseInterval(raw string) (int, string, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))

	var countPart, unitPart string
	switch len(parts) {
	case 1:
		countPart, unitPart = "1", parts[0]
	case 2:
		countPart, unitPart = parts[0], parts[1]
	default:
		return 0, "", fmt.Errorf("invalid interval %q", raw)
	}

	count, err := strconv.Atoi(countPart)
	if err != nil || count < 1 {
		return 0, "", fmt.Errorf("invalid interval count %q", raw)
	}

	switch strings.TrimSuffix(unitPart, "s") {
	case models.IntervalDay:
		return count, models.IntervalDay, nil
	case models.IntervalWeek:
		return count, models.IntervalWeek, nil
	case models.IntervalMonth:
		return count, models.IntervalMonth, nil
	case models.IntervalYear:
		return count, models.IntervalYear, nil
	}
	return 0, "", fmt.Errorf("invalid interval unit %q", raw)
}
