// Package unmarshal copies a decoded value tree into Go data.
//
// Dictionaries map onto structs through `bencode:"name"` tags (the field name
// is used when the tag is missing). Keys without a matching field are dropped
// and pointer fields stay nil when their key is absent, so pointers mark
// optional fields.
package unmarshal

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/mertwole/bencode-cli/bencode/value"
)

const (
	fieldTag = "bencode"
	skipTag  = "-"
)

var (
	bigIntType = reflect.TypeOf(big.Int{})
	valueType  = reflect.TypeOf((*value.Value)(nil)).Elem()
)

func Unmarshal(source value.Value, target any) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Pointer || targetValue.IsNil() {
		return fmt.Errorf("wrong target type: expected non-nil pointer, got %T", target)
	}

	return unmarshal(source, targetValue.Elem())
}

func unmarshal(source value.Value, target reflect.Value) error {
	if !target.CanSet() {
		return fmt.Errorf("cannot set value of type %s", target.Type())
	}

	if target.Type() == valueType {
		target.Set(reflect.ValueOf(&source).Elem())
		return nil
	}

	switch target.Kind() {
	case reflect.Pointer:
		if target.Type().Elem() == bigIntType {
			integer, ok := source.(value.Integer)
			if !ok {
				return wrongType("integer", source)
			}
			target.Set(reflect.ValueOf(integer.Big()))
			return nil
		}

		newValue := reflect.New(target.Type().Elem())
		if err := unmarshal(source, newValue.Elem()); err != nil {
			return err
		}
		target.Set(newValue)
	case reflect.Interface:
		if !valueType.AssignableTo(target.Type()) {
			return fmt.Errorf("cannot store a bencode value in %s", target.Type())
		}
		target.Set(reflect.ValueOf(&source).Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return unmarshalInt(source, target)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return unmarshalUint(source, target)
	case reflect.Bool:
		return unmarshalBool(source, target)
	case reflect.String:
		text, err := stringOf(source)
		if err != nil {
			return err
		}
		target.SetString(text)
	case reflect.Slice:
		if target.Type().Elem().Kind() == reflect.Uint8 {
			text, err := stringOf(source)
			if err != nil {
				return err
			}
			target.SetBytes([]byte(text))
			return nil
		}
		return unmarshalList(source, target)
	case reflect.Array:
		return unmarshalArray(source, target)
	case reflect.Map:
		return unmarshalMap(source, target)
	case reflect.Struct:
		if target.Type() == bigIntType {
			integer, ok := source.(value.Integer)
			if !ok {
				return wrongType("integer", source)
			}
			target.Set(reflect.ValueOf(integer.Big()).Elem())
			return nil
		}
		return unmarshalStruct(source, target)
	default:
		return fmt.Errorf("unsupported target type %s", target.Type())
	}

	return nil
}

func unmarshalInt(source value.Value, target reflect.Value) error {
	integer, ok := source.(value.Integer)
	if !ok {
		return wrongType("integer", source)
	}

	n, fits := integer.Int64()
	if !fits || target.OverflowInt(n) {
		return fmt.Errorf("integer %s overflows %s", integer, target.Type())
	}

	target.SetInt(n)

	return nil
}

func unmarshalUint(source value.Value, target reflect.Value) error {
	integer, ok := source.(value.Integer)
	if !ok {
		return wrongType("integer", source)
	}

	n := integer.Big()
	if n.Sign() < 0 || !n.IsUint64() || target.OverflowUint(n.Uint64()) {
		return fmt.Errorf("integer %s overflows %s", integer, target.Type())
	}

	target.SetUint(n.Uint64())

	return nil
}

func unmarshalBool(source value.Value, target reflect.Value) error {
	integer, ok := source.(value.Integer)
	if !ok {
		return wrongType("integer", source)
	}

	n, _ := integer.Int64()
	if integer.Big().Cmp(big.NewInt(n)) != 0 || (n != 0 && n != 1) {
		return fmt.Errorf("expected 0 or 1 for a boolean, got %s", integer)
	}

	target.SetBool(n == 1)

	return nil
}

func unmarshalList(source value.Value, target reflect.Value) error {
	list, ok := source.(value.List)
	if !ok {
		return wrongType("list", source)
	}

	slice := reflect.MakeSlice(target.Type(), len(list), len(list))
	for i, element := range list {
		if err := unmarshal(element, slice.Index(i)); err != nil {
			return fmt.Errorf("failed to unmarshal list element %d: %w", i, err)
		}
	}
	target.Set(slice)

	return nil
}

func unmarshalArray(source value.Value, target reflect.Value) error {
	if target.Type().Elem().Kind() == reflect.Uint8 {
		text, err := stringOf(source)
		if err != nil {
			return err
		}
		if len(text) != target.Len() {
			return fmt.Errorf("expected %d bytes for %s, got %d", target.Len(), target.Type(), len(text))
		}
		reflect.Copy(target, reflect.ValueOf([]byte(text)))
		return nil
	}

	list, ok := source.(value.List)
	if !ok {
		return wrongType("list", source)
	}
	if len(list) != target.Len() {
		return fmt.Errorf("expected %d elements for %s, got %d", target.Len(), target.Type(), len(list))
	}

	for i, element := range list {
		if err := unmarshal(element, target.Index(i)); err != nil {
			return fmt.Errorf("failed to unmarshal list element %d: %w", i, err)
		}
	}

	return nil
}

func unmarshalMap(source value.Value, target reflect.Value) error {
	dictionary, ok := source.(value.Dictionary)
	if !ok {
		return wrongType("dictionary", source)
	}

	mapType := target.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("invalid map key type: %s, only string keys are supported", mapType.Key())
	}

	result := reflect.MakeMapWithSize(mapType, dictionary.Len())
	for key, element := range dictionary.All() {
		newElement := reflect.New(mapType.Elem()).Elem()
		if err := unmarshal(element, newElement); err != nil {
			return fmt.Errorf("failed to unmarshal dictionary value for key %q: %w", key, err)
		}

		result.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), newElement)
	}
	target.Set(result)

	return nil
}

func unmarshalStruct(source value.Value, target reflect.Value) error {
	dictionary, ok := source.(value.Dictionary)
	if !ok {
		return wrongType("dictionary", source)
	}

	structType := target.Type()
	nameMapping := make(map[string]int)
	for i := range structType.NumField() {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		mapKey := field.Tag.Get(fieldTag)
		if mapKey == skipTag {
			continue
		}
		if mapKey == "" {
			mapKey = field.Name
		}

		if _, keyAlreadyExists := nameMapping[mapKey]; keyAlreadyExists {
			return fmt.Errorf("duplicate field names in a dictionary: %s", mapKey)
		}
		nameMapping[mapKey] = i
	}

	for key, element := range dictionary.All() {
		fieldIndex, present := nameMapping[key]
		if !present {
			continue
		}

		if err := unmarshal(element, target.Field(fieldIndex)); err != nil {
			return fmt.Errorf("failed to unmarshal field %s: %w", structType.Field(fieldIndex).Name, err)
		}
	}

	return nil
}

func stringOf(source value.Value) (string, error) {
	switch source := source.(type) {
	case value.ByteString:
		return string(source), nil
	case value.Text:
		return string(source), nil
	default:
		return "", wrongType("byte string", source)
	}
}

func wrongType(expected string, source value.Value) error {
	if source == nil {
		return fmt.Errorf("wrong value type: expected %s, got nothing", expected)
	}

	return fmt.Errorf("wrong value type: expected %s, got %s", expected, source.Kind())
}
