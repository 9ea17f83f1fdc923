package resource

// StorageClass decides whether a registered entity type survives process
// restart. Persistent entities live in the embedded key-value store;
// Volatile entities live only in process memory.
type StorageClass int

const (
	Volatile StorageClass = iota
	Persistent
)

func (c StorageClass) String() string {
	if c == Persistent {
		return "persistent"
	}
	return "volatile"
}

// Resource is implemented by every entity type usable with the Resources
// handle. TypeName is the storage table name; it must be a compile-time
// constant for a given type (it is evaluated on a zero value).
type Resource interface {
	TypeName() string
	Class() StorageClass
}

// Identifiable lets any of the typed id wrappers in pkg/types address a
// resource without the resource manager needing to know their concrete type.
type Identifiable interface {
	Bytes() [16]byte
}

func tableName[R Resource]() string {
	var zero R
	return zero.TypeName()
}
