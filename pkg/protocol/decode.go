// Package protocol converts start protocol documents between their wire form
// and the in-memory tree.
//
// The decoder walks a generic document produced by ojg instead of relying on
// struct tags, so that optional identity fields can be resolved by precedence
// and every failure can name the offending path.
package protocol

import (
	"strconv"

	"github.com/aarondl/opt/omitnull"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/identity"
	"github.com/mpapenbr/swimprotocol/pkg/model"
)

type (
	Option  func(*decoder)
	decoder struct {
		l *log.Logger
	}
	path []string
	obj  = map[string]any
)

func WithLogger(l *log.Logger) Option {
	return func(d *decoder) {
		d.l = l
	}
}

func newDecoder(opts ...Option) *decoder {
	d := &decoder{l: log.Default().Named("protocol")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (p path) with(elem string) path {
	ret := make(path, len(p), len(p)+1)
	copy(ret, p)
	return append(ret, elem)
}

func (p path) index(i int) path {
	return p.with(strconv.Itoa(i))
}

// Decode parses a start protocol document.
// Both the canonical (discipline, gender, age category) and the legacy
// (discipline, age category, gender) tree shapes are accepted, the result is
// always canonical.
// The document is either accepted as a whole or rejected with a *DecodeError.
func Decode(data []byte, opts ...Option) (*model.Protocol, error) {
	d := newDecoder(opts...)
	root, err := parse(data)
	if err != nil {
		return nil, err
	}
	return d.protocol(root, path{})
}

func parse(data []byte) (any, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, &DecodeError{
			Kind:    DataCorrupted,
			Context: "the given data was not valid JSON: " + err.Error(),
		}
	}
	return v, nil
}

func (d *decoder) protocol(v any, p path) (*model.Protocol, error) {
	o, err := asObject(v, p)
	if err != nil {
		return nil, err
	}
	ret := &model.Protocol{}
	if ret.CompetitionName, err = reqString(o, "competition_name", p); err != nil {
		return nil, err
	}
	if ret.CompetitionDate, err = reqString(o, "competition_date", p); err != nil {
		return nil, err
	}
	if ret.Location, err = reqString(o, "location", p); err != nil {
		return nil, err
	}
	items, err := reqArray(o, "disciplines", p)
	if err != nil {
		return nil, err
	}
	ret.Disciplines = make([]*model.Discipline, 0, len(items))
	for i, item := range items {
		disc, err := d.discipline(item, p.with("disciplines").index(i))
		if err != nil {
			return nil, err
		}
		ret.Disciplines = append(ret.Disciplines, disc)
	}
	return ret, nil
}

func (d *decoder) discipline(v any, p path) (*model.Discipline, error) {
	o, err := asObject(v, p)
	if err != nil {
		return nil, err
	}
	ret := &model.Discipline{}
	if ret.Name, err = reqString(o, "discipline_name", p); err != nil {
		return nil, err
	}
	if ret.Description, err = reqString(o, "description", p); err != nil {
		return nil, err
	}
	ret.ID, ret.IDSource = identity.Discipline(
		identity.Candidate{Value: optString(o, "id"), Source: idSource(o)},
		identity.Candidate{Value: optString(o, "discipline_id"), Source: model.IDSourceServer},
	)

	_, hasGenders := o["genders"]
	_, hasAgeCategories := o["age_categories"]
	if !hasGenders && hasAgeCategories {
		d.l.Debug("regrouping legacy discipline",
			log.String("discipline", ret.Name))
		ret.Genders, err = d.legacyGenders(o, p)
	} else {
		ret.Genders, err = d.genders(o, p)
	}
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *decoder) genders(o obj, p path) ([]*model.GenderCategory, error) {
	items, err := reqArray(o, "genders", p)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.GenderCategory, 0, len(items))
	for i, item := range items {
		gp := p.with("genders").index(i)
		g, err := asObject(item, gp)
		if err != nil {
			return nil, err
		}
		gc := &model.GenderCategory{}
		if gc.Gender, err = reqString(g, "gender", gp); err != nil {
			return nil, err
		}
		cats, err := reqArray(g, "age_categories", gp)
		if err != nil {
			return nil, err
		}
		gc.AgeCategories = make([]*model.AgeCategory, 0, len(cats))
		for j, cat := range cats {
			ap := gp.with("age_categories").index(j)
			a, err := asObject(cat, ap)
			if err != nil {
				return nil, err
			}
			ac := &model.AgeCategory{}
			if ac.CategoryName, err = reqString(a, "category_name", ap); err != nil {
				return nil, err
			}
			if ac.Heats, err = d.heats(a, ap); err != nil {
				return nil, err
			}
			gc.AgeCategories = append(gc.AgeCategories, ac)
		}
		ret = append(ret, gc)
	}
	return ret, nil
}

// legacyGenders reads discipline -> age_categories -> genders -> heats and
// regroups it by gender, keeping the order in which genders are first seen.
func (d *decoder) legacyGenders(o obj, p path) ([]*model.GenderCategory, error) {
	cats, err := reqArray(o, "age_categories", p)
	if err != nil {
		return nil, err
	}
	ret := []*model.GenderCategory{}
	byGender := map[string]*model.GenderCategory{}
	for i, cat := range cats {
		ap := p.with("age_categories").index(i)
		a, err := asObject(cat, ap)
		if err != nil {
			return nil, err
		}
		name, err := reqString(a, "category_name", ap)
		if err != nil {
			return nil, err
		}
		genders, err := reqArray(a, "genders", ap)
		if err != nil {
			return nil, err
		}
		for j, item := range genders {
			gp := ap.with("genders").index(j)
			g, err := asObject(item, gp)
			if err != nil {
				return nil, err
			}
			label, err := reqString(g, "gender", gp)
			if err != nil {
				return nil, err
			}
			heats, err := d.heats(g, gp)
			if err != nil {
				return nil, err
			}
			gc, ok := byGender[label]
			if !ok {
				gc = &model.GenderCategory{Gender: label}
				byGender[label] = gc
				ret = append(ret, gc)
			}
			gc.AgeCategories = append(gc.AgeCategories,
				&model.AgeCategory{CategoryName: name, Heats: heats})
		}
	}
	return ret, nil
}

func (d *decoder) heats(o obj, p path) ([]model.Heat, error) {
	items, err := reqArray(o, "heats", p)
	if err != nil {
		return nil, err
	}
	ret := make([]model.Heat, 0, len(items))
	for i, item := range items {
		hp := p.with("heats").index(i)
		lanes, ok := item.([]any)
		if !ok {
			return nil, mismatch(hp, "array", item)
		}
		heat := make(model.Heat, 0, len(lanes))
		for j, lane := range lanes {
			if lane == nil {
				heat = append(heat, model.EmptyLane())
				continue
			}
			pa, err := d.participant(lane, hp.index(j))
			if err != nil {
				return nil, err
			}
			heat = append(heat, model.OccupiedLane(pa))
		}
		ret = append(ret, heat)
	}
	return ret, nil
}

func (d *decoder) participant(v any, p path) (*model.Participant, error) {
	o, err := asObject(v, p)
	if err != nil {
		return nil, err
	}
	ret := &model.Participant{}
	if ret.FullName, err = reqString(o, "full_name", p); err != nil {
		return nil, err
	}
	if ret.Gender, err = reqString(o, "gender", p); err != nil {
		return nil, err
	}
	if ret.DateOfBirth, err = reqString(o, "date_of_birth", p); err != nil {
		return nil, err
	}
	if ret.Club, err = reqString(o, "club", p); err != nil {
		return nil, err
	}
	if ret.ApplicationTime, err = reqString(o, "application_time", p); err != nil {
		return nil, err
	}
	// absent and null both mean no team, relay detection only asks for a value
	team, typed := optNullString(o, "team_name")
	if !typed {
		d.l.Debug("team_name is not a string, treated as absent",
			log.Strings("path", p.with("team_name")))
	}
	if name, ok := team.Get(); ok {
		ret.TeamName = &name
	}
	ret.ID, ret.IDSource = identity.Participant(ret.FullName, ret.DateOfBirth, ret.Club,
		identity.Candidate{Value: optString(o, "id"), Source: idSource(o)},
		identity.Candidate{Value: optString(o, "participant_id"), Source: model.IDSourceServer},
	)
	return ret, nil
}

func asObject(v any, p path) (obj, error) {
	switch o := v.(type) {
	case obj:
		return o, nil
	case nil:
		return nil, &DecodeError{
			Kind: ValueNotFound, Path: p, Expected: "object",
			Context: "expected object value but found null",
		}
	default:
		return nil, mismatch(p, "object", v)
	}
}

func reqString(o obj, key string, p path) (string, error) {
	v, ok := o[key]
	if !ok {
		return "", &DecodeError{
			Kind: KeyNotFound, Path: p.with(key), Expected: "string",
			Context: "no value associated with key " + strconv.Quote(key),
		}
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", &DecodeError{
			Kind: ValueNotFound, Path: p.with(key), Expected: "string",
			Context: "expected string value but found null",
		}
	default:
		return "", mismatch(p.with(key), "string", v)
	}
}

func reqArray(o obj, key string, p path) ([]any, error) {
	v, ok := o[key]
	if !ok {
		return nil, &DecodeError{
			Kind: KeyNotFound, Path: p.with(key), Expected: "array",
			Context: "no value associated with key " + strconv.Quote(key),
		}
	}
	switch a := v.(type) {
	case []any:
		return a, nil
	case nil:
		return nil, &DecodeError{
			Kind: ValueNotFound, Path: p.with(key), Expected: "array",
			Context: "expected array value but found null",
		}
	default:
		return nil, mismatch(p.with(key), "array", v)
	}
}

// optString returns the string value of key or "" if absent or not a string
func optString(o obj, key string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return ""
}

// optNullString distinguishes an absent key from an explicit null.
// Values of other types are returned as absent with typed set to false.
func optNullString(o obj, key string) (val omitnull.Val[string], typed bool) {
	v, ok := o[key]
	if !ok {
		return omitnull.Val[string]{}, true
	}
	if v == nil {
		return omitnull.FromPtr[string](nil), true
	}
	if s, ok := v.(string); ok {
		return omitnull.From(s), true
	}
	return omitnull.Val[string]{}, false
}

// idSource reads the persisted id_source marker of local snapshots.
// Server documents carry no marker, their ids count as server ids.
func idSource(o obj) model.IDSource {
	switch src := model.IDSource(optString(o, "id_source")); src {
	case model.IDSourceServer, model.IDSourceGenerated, model.IDSourceDerived:
		return src
	default:
		return model.IDSourceServer
	}
}

func mismatch(p path, expected string, found any) *DecodeError {
	return &DecodeError{
		Kind: TypeMismatch, Path: p, Expected: expected,
		Context: "expected " + expected + " value but found " + typeName(found),
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int64, float64:
		return "number"
	case []any:
		return "array"
	case obj:
		return "object"
	default:
		return "number"
	}
}
