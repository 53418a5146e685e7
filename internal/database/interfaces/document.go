package interfaces

import "go.mongodb.org/mongo-driver/bson/primitive"

// Base carries the identity and version every stored document has.
type Base struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Version int                `bson:"__v" json:"__v"`
}

func (b *Base) GetID() primitive.ObjectID {
	return b.ID
}

func (b *Base) SetID(id primitive.ObjectID) {
	b.ID = id
}

// Document is implemented by every type embedding Base.
type Document interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
}

// Defaulter fills unset fields before a document is written.
type Defaulter interface {
	ApplyDefaults()
}

// Validatable checks a document before it is written.
type Validatable interface {
	Validate() error
}

// Prepare assigns a missing id, applies defaults and validates doc.
func Prepare(doc interface{}) (primitive.ObjectID, error) {
	var id primitive.ObjectID
	if d, ok := doc.(Document); ok {
		if d.GetID().IsZero() {
			d.SetID(primitive.NewObjectID())
		}
		id = d.GetID()
	}
	if d, ok := doc.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := doc.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return id, err
		}
	}
	return id, nil
}
