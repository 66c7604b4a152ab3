// SPDX-License-Identifier: Apache-2.0

package transformers

// Definition describes the parameters accepted by a transformer type.
type Definition struct {
	Description string
	Parameters  []Parameter
}

type Parameter struct {
	Name          string
	Description   string
	SupportedType string
	Default       any
	Required      bool
}

// ParameterNames returns the names of all the parameters in the definition.
func (d *Definition) ParameterNames() []string {
	names := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		names = append(names, p.Name)
	}
	return names
}

// RequiredParameters returns the names of the parameters that must be
// provided.
func (d *Definition) RequiredParameters() []string {
	names := []string{}
	for _, p := range d.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}
