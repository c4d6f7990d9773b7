package usecase

import (
	"fmt"
	"reflect"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/changelog"
)

// diffTracked compares two records of the same struct type field by field,
// walking fields carrying a `track` tag in declaration order. Each differing
// field yields one FieldChange with both sides JSON-encoded, so nil pointers
// serialize as "null" and structured values keep their shape.
func diffTracked(before, after any) ([]changelog.FieldChange, error) {
	beforeVal := reflect.ValueOf(before)
	afterVal := reflect.ValueOf(after)
	if beforeVal.Kind() == reflect.Pointer {
		beforeVal = beforeVal.Elem()
	}
	if afterVal.Kind() == reflect.Pointer {
		afterVal = afterVal.Elem()
	}

	if beforeVal.Kind() != reflect.Struct || beforeVal.Type() != afterVal.Type() {
		return nil, crerr.Newf("diff requires two records of the same struct type, got %T and %T", before, after)
	}

	recordType := beforeVal.Type()
	var changes []changelog.FieldChange
	for i := 0; i < recordType.NumField(); i++ {
		field := recordType.Field(i)
		name := field.Tag.Get("track")
		if name == "" || name == "-" {
			continue
		}

		oldField := beforeVal.Field(i).Interface()
		newField := afterVal.Field(i).Interface()
		if reflect.DeepEqual(oldField, newField) {
			continue
		}

		oldEncoded, err := encodeFieldValue(oldField)
		if err != nil {
			return nil, crerr.Wrapf(err, "encode old value of %s", name)
		}
		newEncoded, err := encodeFieldValue(newField)
		if err != nil {
			return nil, crerr.Wrapf(err, "encode new value of %s", name)
		}

		changes = append(changes, changelog.FieldChange{
			Field:    name,
			OldValue: oldEncoded,
			NewValue: newEncoded,
		})
	}

	return changes, nil
}

func encodeFieldValue(value any) (string, error) {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal field value: %w", err)
	}
	return string(encoded), nil
}
