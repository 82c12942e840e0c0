package entity

// FormField is a single hidden input of the redirect form.
type FormField struct {
	Name  string
	Value string
}

// RedirectForm is posted by the shopper's browser to the gateway's hosted
// payment page. Fields keep the order they were added in.
type RedirectForm struct {
	Name   string
	Method string
	Url    string
	Fields []FormField
}

func (f *RedirectForm) Add(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// Get returns the value of the first field with the given name.
func (f *RedirectForm) Get(name string) (string, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}
