package codec

import (
	"reflect"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/logic"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Document is the plaintext payload of a circuit file.
type Document struct {
	Components  []ComponentRecord  `json:"components" mapstructure:"components"`
	Connections []ConnectionRecord `json:"connections" mapstructure:"connections"`
}

// ComponentRecord is the stored form of a component. Custom blocks carry
// their behavior so the document can be loaded where the block was never
// registered.
type ComponentRecord struct {
	ID       string         `json:"id" mapstructure:"id" validate:"required"`
	Type     string         `json:"type" mapstructure:"type" validate:"required"`
	X        float64        `json:"x" mapstructure:"x"`
	Y        float64        `json:"y" mapstructure:"y"`
	Inputs   int            `json:"inputs" mapstructure:"inputs" validate:"gte=0,lte=16"`
	Outputs  int            `json:"outputs" mapstructure:"outputs" validate:"gte=0,lte=16"`
	State    domain.Signal  `json:"state" mapstructure:"state"`
	Key      string         `json:"key,omitempty" mapstructure:"key" validate:"max=1"`
	Width    int            `json:"width,omitempty" mapstructure:"width" validate:"gte=0"`
	Behavior *logic.Program `json:"behavior,omitempty" mapstructure:"behavior"`
}

// ConnectionRecord is the stored form of a connection.
type ConnectionRecord struct {
	ID         string            `json:"id" mapstructure:"id" validate:"required"`
	From       string            `json:"from" mapstructure:"from" validate:"required"`
	FromOutput int               `json:"fromOutput" mapstructure:"fromOutput" validate:"gte=0"`
	To         string            `json:"to" mapstructure:"to" validate:"required"`
	ToInput    int               `json:"toInput" mapstructure:"toInput" validate:"gte=0"`
	Style      domain.RouteStyle `json:"style" mapstructure:"style"`
}

var recordValidate = validator.New()

var signalType = reflect.TypeOf(domain.Unset)

// signalHook decodes the loose state values found in documents: booleans,
// arrays of booleans (first element wins) and numbers.
func signalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != signalType {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		return domain.Level(v), nil
	case []any:
		if len(v) == 0 {
			return domain.Unset, nil
		}
		b, _ := v[0].(bool)
		return domain.Level(b), nil
	case float64:
		return domain.Level(v != 0), nil
	case string:
		switch v {
		case "true", "1":
			return domain.High, nil
		case "false", "0":
			return domain.Low, nil
		}
		return domain.Unset, nil
	}
	return data, nil
}

func decodeDocument(raw map[string]any) (*Document, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       signalHook,
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &doc, nil
}
