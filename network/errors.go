package network

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned or panicked.
var (
	ErrRegisterWrongType = Error{"Type is not recognized"}
	ErrRegisterNilReturn = Error{"Function return is nil"}
	ErrRegisterDuplicate = Error{"TypeString is already registered"}
	ErrNotRegistered     = Error{"TypeString is not registered"}

	ErrNetNotFinalized = Error{"Network has not been finalized"}
	ErrNetFinalized    = Error{"Network has already been finalized"}
	ErrNoOutputs       = Error{"Network outputs have not been calculated"}
	ErrNoHP            = Error{"HyperParameter is not present"}
	ErrNoInputs        = Error{"Node has no inputs"}
)

// NilArgError documents errors resulting from certain arguments provided to a function being nil.
type NilArgError struct{ string }

func (err NilArgError) Error() string {
	return err.string + " is nil"
}
