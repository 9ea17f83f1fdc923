package resource

import "github.com/pkg/errors"

// PersistenceError wraps a storage I/O or (de)serialization failure with the
// entity type, operation, and id it occurred on.
type PersistenceError struct {
	TypeName  string
	Operation string
	ID        [16]byte
	Cause     error
}

func (e *PersistenceError) Error() string {
	return errors.Wrapf(e.Cause, "%s %s %x", e.Operation, e.TypeName, e.ID[:4]).Error()
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

func persistenceErr(typeName, op string, id [16]byte, cause error) error {
	return &PersistenceError{TypeName: typeName, Operation: op, ID: id, Cause: cause}
}

// ErrReadOnlyTransaction is returned when a mutation is attempted against a
// handle obtained from Manager.Resources (the read-only entry point).
var ErrReadOnlyTransaction = errors.New("cannot mutate resources in a read-only transaction")
