package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AsObject is an ActivityStreams 1.0 object or activity as silo clients return it.
type AsObject struct {
	Id                 string      `json:"id,omitempty"`
	ObjectType         string      `json:"objectType,omitempty"`
	Verb               string      `json:"verb,omitempty"`
	Url                string      `json:"url,omitempty"`
	Urls               []AsUrl     `json:"urls,omitempty"`
	DisplayName        string      `json:"displayName,omitempty"`
	Alias              string      `json:"alias,omitempty"`
	Content            string      `json:"content,omitempty"`
	Published          string      `json:"published,omitempty"`
	Updated            string      `json:"updated,omitempty"`
	Author             *AsObject   `json:"author,omitempty"`
	Actor              *AsObject   `json:"actor,omitempty"`
	Object             *AsObject   `json:"object,omitempty"`
	InReplyTo          []*AsObject `json:"-"`
	RawInReplyTo       any         `json:"inReplyTo,omitempty"`
	Tags               []*AsObject `json:"tags,omitempty"`
	UpstreamDuplicates []string    `json:"upstreamDuplicates,omitempty"`
	Context            *AsContext  `json:"context,omitempty"`
	To                 []*AsObject `json:"to,omitempty"`
	FbObjectForIds     []string    `json:"fb_object_for_ids,omitempty"`
}

type AsUrl struct {
	Value string `json:"value"`
}

type AsContext struct {
	InReplyTo    []*AsObject `json:"-"`
	RawInReplyTo any         `json:"inReplyTo,omitempty"`
}

// getObjectList accepts either a single object or a list of objects.
func getObjectList(raw any) ([]*AsObject, error) {
	if raw == nil {
		return nil, nil
	}
	var data []byte
	var err error
	if data, err = json.Marshal(raw); err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) != 0 && data[0] == '[' {
		var res []*AsObject
		if err = json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("inReplyTo must contain objects: %w", err)
		}
		return res, nil
	}
	var single AsObject
	if err = json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("inReplyTo must be an object or array of objects: %w", err)
	}
	return []*AsObject{&single}, nil
}

func (x *AsObject) UnmarshalJSON(data []byte) error {
	var err error
	type Y AsObject
	var y = (*Y)(x)
	if err = json.Unmarshal(data, y); err != nil {
		return err
	}
	if y.InReplyTo, err = getObjectList(y.RawInReplyTo); err != nil {
		return err
	}
	y.RawInReplyTo = nil
	return nil
}

func (x *AsObject) MarshalJSON() ([]byte, error) {
	type Y AsObject
	var y = Y(*x)
	if len(y.InReplyTo) != 0 {
		y.RawInReplyTo = y.InReplyTo
	}
	return json.Marshal(&y)
}

func (x *AsContext) UnmarshalJSON(data []byte) error {
	var err error
	type Y AsContext
	var y = (*Y)(x)
	if err = json.Unmarshal(data, y); err != nil {
		return err
	}
	if y.InReplyTo, err = getObjectList(y.RawInReplyTo); err != nil {
		return err
	}
	y.RawInReplyTo = nil
	return nil
}

func (x *AsContext) MarshalJSON() ([]byte, error) {
	type Y AsContext
	var y = Y(*x)
	if len(y.InReplyTo) != 0 {
		y.RawInReplyTo = y.InReplyTo
	}
	return json.Marshal(&y)
}

// AllUrls returns url followed by every urls[].value, skipping empties.
func (x *AsObject) AllUrls() []string {
	var res []string
	if x.Url != "" {
		res = append(res, x.Url)
	}
	for _, u := range x.Urls {
		if u.Value != "" {
			res = append(res, u.Value)
		}
	}
	return res
}

// ParseAsObject decodes a JSON-serialized object.
func ParseAsObject(data string) (*AsObject, error) {
	var res AsObject
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Serialize returns the canonical JSON form used for change detection.
func (x *AsObject) Serialize() string {
	data, _ := json.Marshal(x)
	return string(data)
}
