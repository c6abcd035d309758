package parcel

import "fmt"

// MalformedRecordError — в payload отсутствует или не парсится обязательное
// поле. Парсинг посылки атомарный: частичный результат не возвращается.
type MalformedRecordError struct {
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed parcel record: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed parcel record: field %q is required", e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func malformed(field string) error {
	return &MalformedRecordError{Field: field}
}

func malformedErr(field string, err error) error {
	return &MalformedRecordError{Field: field, Err: err}
}
