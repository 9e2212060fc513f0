package protocol

import (
	"math"
	"strconv"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

// DecodeCompetitions parses the competition list
func DecodeCompetitions(data []byte) ([]model.Competition, error) {
	root, err := parse(data)
	if err != nil {
		return nil, err
	}
	items, ok := root.([]any)
	if !ok {
		return nil, mismatch(path{}, "array", root)
	}
	ret := make([]model.Competition, 0, len(items))
	for i, item := range items {
		p := path{}.index(i)
		o, err := asObject(item, p)
		if err != nil {
			return nil, err
		}
		c := model.Competition{}
		if c.ID, err = reqID(o, "id", p); err != nil {
			return nil, err
		}
		if c.Description, err = reqString(o, "description", p); err != nil {
			return nil, err
		}
		if c.Location, err = reqString(o, "location", p); err != nil {
			return nil, err
		}
		if c.Date, err = reqString(o, "date", p); err != nil {
			return nil, err
		}
		if c.IsActive, err = reqBool(o, "is_active", p); err != nil {
			return nil, err
		}
		if c.RegisteredCount, err = reqInt(o, "registered_count", p); err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

// reqID accepts string ids and integral numbers rendered as decimal string
func reqID(o obj, key string, p path) (string, error) {
	if n, ok := o[key].(int64); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return reqString(o, key, p)
}

func reqBool(o obj, key string, p path) (bool, error) {
	v, ok := o[key]
	if !ok {
		return false, &DecodeError{
			Kind: KeyNotFound, Path: p.with(key), Expected: "bool",
			Context: "no value associated with key " + strconv.Quote(key),
		}
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, &DecodeError{
			Kind: ValueNotFound, Path: p.with(key), Expected: "bool",
			Context: "expected bool value but found null",
		}
	default:
		return false, mismatch(p.with(key), "bool", v)
	}
}

func reqInt(o obj, key string, p path) (int, error) {
	v, ok := o[key]
	if !ok {
		return 0, &DecodeError{
			Kind: KeyNotFound, Path: p.with(key), Expected: "int",
			Context: "no value associated with key " + strconv.Quote(key),
		}
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
		return 0, &DecodeError{
			Kind: DataCorrupted, Path: p.with(key), Expected: "int",
			Context: "number " + strconv.FormatFloat(n, 'f', -1, 64) + " is not an integer",
		}
	case nil:
		return 0, &DecodeError{
			Kind: ValueNotFound, Path: p.with(key), Expected: "int",
			Context: "expected int value but found null",
		}
	default:
		return 0, mismatch(p.with(key), "int", v)
	}
}
