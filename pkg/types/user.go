package types

import (
	"fmt"
	"strconv"
)

// User is the typed view of a record in the "user" collection.
// Age is kept as text because it is entered through a form field.
type User struct {
	ID         Key    `json:"id,omitempty"`
	Name       string `json:"name"`
	Age        string `json:"age"`
	Profession string `json:"profession"`
}

// ToRecord converts the user to a Record. A zero ID is left out so that the
// engine assigns one on insert.
func (u User) ToRecord() Record {
	rec := Record{
		"name":       u.Name,
		"age":        u.Age,
		"profession": u.Profession,
	}
	if u.ID != NoKey {
		rec["id"] = u.ID
	}
	return rec
}

// UserFromRecord reads a User out of a Record. Numeric ages are formatted
// as decimal text.
func UserFromRecord(rec Record) (User, error) {
	id, _, err := rec.Key("id")
	if err != nil {
		return User{}, err
	}
	u := User{ID: id}
	if u.Name, err = stringField(rec, "name"); err != nil {
		return User{}, err
	}
	if u.Age, err = stringField(rec, "age"); err != nil {
		return User{}, err
	}
	if u.Profession, err = stringField(rec, "profession"); err != nil {
		return User{}, err
	}
	return u, nil
}

func stringField(rec Record, field string) (string, error) {
	switch v := rec[field].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("%w: field %q has type %T", ErrInvalidRecord, field, v)
	}
}
