package dict

import (
	"fmt"

	"github.com/francistor/diameter/resources"
)

// Embedded builds a Dictionary from the module's built-in base dictionary,
// bundled via resources.Fs the same way the teacher embeds its resources
// directory. Callers layer site-specific AVPs on top with Merge.
func Embedded() (*Dictionary, error) {
	f, err := resources.Fs.Open("base_dictionary.xml")
	if err != nil {
		return nil, fmt.Errorf("opening embedded dictionary: %w", err)
	}
	defer f.Close()

	b := newBuilder()
	if err := b.addSource(f); err != nil {
		return nil, err
	}
	return b.freeze(), nil
}
