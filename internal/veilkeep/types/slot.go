package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Slot is an attribute slot index on a record. The slot set is fixed
// per record type; every record carries exactly AttributeCount
// encrypted attributes.
type Slot uint8

const (
	SlotLevel Slot = iota
	SlotExp
	SlotAttack
	SlotDefense

	// AttributeCount is the number of attribute slots per record.
	AttributeCount = 4
)

var ErrUnknownSlot = errors.New("unknown attribute slot")

var slotNames = [AttributeCount]string{"level", "exp", "attack", "defense"}

func (s Slot) Valid() bool { return s < AttributeCount }

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("slot(%d)", uint8(s))
	}
	return slotNames[s]
}

// ParseSlot resolves a slot from its name ("level", "exp", "attack",
// "defense") or its numeric index.
func ParseSlot(v string) (Slot, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range slotNames {
		if v == name {
			return Slot(i), nil
		}
	}
	if n, err := strconv.ParseUint(v, 10, 8); err == nil && Slot(n).Valid() {
		return Slot(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, v)
}
