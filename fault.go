package hollow

import "fmt"

// Fault mirrors a service-side error response. A configured response holding
// an "Error" key is returned to the caller as a *Fault instead of a value.
type Fault struct {
	Service string
	Method  string
	Code    string
	Message string
	// Modeled is true when the service specification declares an exception
	// shape with the same name as Code.
	Modeled bool
}

func (f *Fault) Error() string {
	return fmt.Sprintf("an error occurred (%s) when calling the %s operation: %s", f.Code, f.Method, f.Message)
}

// Response returns the structured form of the fault as the SDK reports it.
func (f *Fault) Response() map[string]any {
	return map[string]any{
		"Error": map[string]any{
			"Code":    f.Code,
			"Message": f.Message,
		},
	}
}

// Is reports whether target is a *Fault with the same code, so that callers
// can write errors.Is(err, &hollow.Fault{Code: "NoSuchBucket"}).
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return t.Code == f.Code
}

// FaultFromResponse inspects a cast response for an "Error" entry and returns
// the fault it describes, or nil if the response is a normal value.
func FaultFromResponse(response any) *Fault {
	m, ok := response.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["Error"]
	if !ok {
		return nil
	}
	f := &Fault{}
	if body, ok := raw.(map[string]any); ok {
		if code, ok := body["Code"]; ok && code != nil {
			f.Code = fmt.Sprint(code)
		}
		if msg, ok := body["Message"]; ok && msg != nil {
			f.Message = fmt.Sprint(msg)
		}
	}
	return f
}
