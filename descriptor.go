package aotvm

import "fmt"

type tribool uint8

const (
	// TNeither doubles as "attribute absent" in descriptors and as the
	// undefined outcome of a relational comparison.
	TNeither tribool = iota
	TFalse
	TTrue
)

func bool2tri(b bool) tribool {
	if b {
		return TTrue
	} else {
		return TFalse
	}
}

func (t tribool) present() bool { return t != TNeither }

func (t tribool) isTrue() bool { return t == TTrue }

func (t tribool) isFalse() bool { return t == TFalse }

// PropertyDescriptor is a Property Descriptor record. A nil Value, Get or Set
// means the field is absent; TNeither means a boolean field is absent.
type PropertyDescriptor struct {
	Value        JSValue
	Get, Set     JSValue
	Writable     tribool
	Enumerable   tribool
	Configurable tribool
}

func (d *PropertyDescriptor) IsDataDescriptor() bool {
	return d != nil && (d.Value != nil || d.Writable.present())
}

func (d *PropertyDescriptor) IsAccessorDescriptor() bool {
	return d != nil && (d.Get != nil || d.Set != nil)
}

func (d *PropertyDescriptor) IsGenericDescriptor() bool {
	return d != nil && !d.IsDataDescriptor() && !d.IsAccessorDescriptor()
}

func (d *PropertyDescriptor) isEmpty() bool {
	return d.Value == nil && d.Get == nil && d.Set == nil &&
		!d.Writable.present() && !d.Enumerable.present() && !d.Configurable.present()
}

// Complete fills in absent fields with their defaults. Only descriptors that
// are about to be stored get completed.
func (d *PropertyDescriptor) Complete() {
	if d.IsGenericDescriptor() || d.IsDataDescriptor() {
		if d.Value == nil {
			d.Value = JSUndefined{}
		}
		if !d.Writable.present() {
			d.Writable = TFalse
		}
	} else {
		if d.Get == nil {
			d.Get = JSUndefined{}
		}
		if d.Set == nil {
			d.Set = JSUndefined{}
		}
	}
	if !d.Enumerable.present() {
		d.Enumerable = TFalse
	}
	if !d.Configurable.present() {
		d.Configurable = TFalse
	}
}

func (d *PropertyDescriptor) clone() *PropertyDescriptor {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func (d PropertyDescriptor) String() string {
	s := "{"
	if d.Value != nil {
		s += fmt.Sprintf(" value: %v", d.Value)
	}
	if d.Get != nil {
		s += fmt.Sprintf(" get: %v", d.Get)
	}
	if d.Set != nil {
		s += fmt.Sprintf(" set: %v", d.Set)
	}
	for _, f := range []struct {
		name string
		v    tribool
	}{{"writable", d.Writable}, {"enumerable", d.Enumerable}, {"configurable", d.Configurable}} {
		if f.v.present() {
			s += fmt.Sprintf(" %s: %v", f.name, f.v.isTrue())
		}
	}
	return s + " }"
}

// DataProperty returns a complete data descriptor.
func DataProperty(value JSValue, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Value:        value,
		Writable:     bool2tri(writable),
		Enumerable:   bool2tri(enumerable),
		Configurable: bool2tri(configurable),
	}
}

// AccessorProperty returns a complete accessor descriptor; nil functions
// become undefined.
func AccessorProperty(get, set *JSObject, enumerable, configurable bool) PropertyDescriptor {
	d := PropertyDescriptor{
		Get:          JSUndefined{},
		Set:          JSUndefined{},
		Enumerable:   bool2tri(enumerable),
		Configurable: bool2tri(configurable),
	}
	if get != nil {
		d.Get = get
	}
	if set != nil {
		d.Set = set
	}
	return d
}

// ToPropertyDescriptor reads the descriptor fields off obj, in the order
// enumerable, configurable, value, writable, get, set.
func (vm *VM) ToPropertyDescriptor(v JSValue) (desc PropertyDescriptor, err error) {
	obj, isObj := v.(*JSObject)
	if !isObj {
		return desc, vm.ThrowError("TypeError", "property descriptor must be an object")
	}

	readBool := func(name string) (tribool, error) {
		has, err := vm.HasProperty(obj, NameStr(name))
		if err != nil || !has {
			return TNeither, err
		}
		value, err := vm.Get(obj, NameStr(name))
		if err != nil {
			return TNeither, err
		}
		return bool2tri(bool(vm.ToBoolean(value))), nil
	}
	readValue := func(name string) (JSValue, error) {
		has, err := vm.HasProperty(obj, NameStr(name))
		if err != nil || !has {
			return nil, err
		}
		return vm.Get(obj, NameStr(name))
	}

	if desc.Enumerable, err = readBool("enumerable"); err != nil {
		return
	}
	if desc.Configurable, err = readBool("configurable"); err != nil {
		return
	}
	if desc.Value, err = readValue("value"); err != nil {
		return
	}
	if desc.Writable, err = readBool("writable"); err != nil {
		return
	}
	if desc.Get, err = readValue("get"); err != nil {
		return
	}
	if desc.Get != nil && !IsCallable(desc.Get) && !IsUndefined(desc.Get) {
		return desc, vm.ThrowError("TypeError", "getter must be a function: "+vm.describe(desc.Get))
	}
	if desc.Set, err = readValue("set"); err != nil {
		return
	}
	if desc.Set != nil && !IsCallable(desc.Set) && !IsUndefined(desc.Set) {
		return desc, vm.ThrowError("TypeError", "setter must be a function: "+vm.describe(desc.Set))
	}

	if (desc.Get != nil || desc.Set != nil) && (desc.Value != nil || desc.Writable.present()) {
		return desc, vm.ThrowError("TypeError", "invalid property descriptor: cannot both specify accessors and a value or writable attribute")
	}
	return desc, nil
}

// FromPropertyDescriptor returns undefined for an absent descriptor, and
// otherwise a plain object carrying only the present fields.
func (vm *VM) FromPropertyDescriptor(desc *PropertyDescriptor) JSValue {
	if desc == nil {
		return JSUndefined{}
	}
	obj := OrdinaryObjectCreate(vm.CurrentRealm().Intrinsics.ObjectPrototype)
	put := func(name string, v JSValue) {
		mustBool(OrdinaryDefineOwnProperty(vm, obj, NameStr(name), DataProperty(v, true, true, true)))
	}
	if desc.Value != nil {
		put("value", desc.Value)
	}
	if desc.Writable.present() {
		put("writable", boolValue(desc.Writable.isTrue()))
	}
	if desc.Get != nil {
		put("get", desc.Get)
	}
	if desc.Set != nil {
		put("set", desc.Set)
	}
	if desc.Enumerable.present() {
		put("enumerable", boolValue(desc.Enumerable.isTrue()))
	}
	if desc.Configurable.present() {
		put("configurable", boolValue(desc.Configurable.isTrue()))
	}
	return obj
}

func CompletePropertyDescriptor(desc *PropertyDescriptor) {
	desc.Complete()
}

func IsCompatiblePropertyDescriptor(extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	return ValidateAndApplyPropertyDescriptor(nil, Name{}, extensible, desc, current)
}

// ValidateAndApplyPropertyDescriptor checks desc against current and, when
// o is non-nil, applies it. A false result is a rejection, not an error.
func ValidateAndApplyPropertyDescriptor(o *JSObject, key Name, extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	if current == nil {
		if !extensible {
			return false
		}
		if o != nil {
			stored := desc
			if desc.IsGenericDescriptor() || desc.IsDataDescriptor() {
				stored.Get, stored.Set = nil, nil
			} else {
				stored.Value, stored.Writable = nil, TNeither
			}
			stored.Complete()
			o.props.put(key, stored)
		}
		return true
	}

	if desc.isEmpty() {
		return true
	}

	if current.Configurable.isFalse() {
		if desc.Configurable.isTrue() {
			return false
		}
		if desc.Enumerable.present() && desc.Enumerable != current.Enumerable {
			return false
		}
		if !desc.IsGenericDescriptor() && desc.IsAccessorDescriptor() != current.IsAccessorDescriptor() {
			return false
		}
		if current.IsAccessorDescriptor() {
			if desc.Get != nil && !SameValue(desc.Get, current.Get) {
				return false
			}
			if desc.Set != nil && !SameValue(desc.Set, current.Set) {
				return false
			}
		} else if current.Writable.isFalse() {
			if desc.Writable.isTrue() {
				return false
			}
			if desc.Value != nil && !SameValue(desc.Value, current.Value) {
				return false
			}
		}
	}

	if o != nil {
		var updated PropertyDescriptor
		if current.IsDataDescriptor() && desc.IsAccessorDescriptor() {
			updated = PropertyDescriptor{
				Get:          JSUndefined{},
				Set:          JSUndefined{},
				Enumerable:   current.Enumerable,
				Configurable: current.Configurable,
			}
		} else if current.IsAccessorDescriptor() && desc.IsDataDescriptor() {
			updated = PropertyDescriptor{
				Value:        JSUndefined{},
				Writable:     TFalse,
				Enumerable:   current.Enumerable,
				Configurable: current.Configurable,
			}
		} else {
			updated = *current
		}

		if desc.Value != nil {
			updated.Value = desc.Value
		}
		if desc.Writable.present() {
			updated.Writable = desc.Writable
		}
		if desc.Get != nil {
			updated.Get = desc.Get
		}
		if desc.Set != nil {
			updated.Set = desc.Set
		}
		if desc.Enumerable.present() {
			updated.Enumerable = desc.Enumerable
		}
		if desc.Configurable.present() {
			updated.Configurable = desc.Configurable
		}
		o.props.put(key, updated)
	}
	return true
}
