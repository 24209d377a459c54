package reactive

import "reflect"

type seenKey struct {
	typ reflect.Type
	ptr uintptr
}

// Traverse reads every value reachable from v so that the active effect
// depends on all of it, and returns v. It follows wrappers, Go maps (keys and
// values), slices, arrays, exported struct fields, pointers and interfaces,
// visiting each reference once.
func Traverse(v any) any {
	traverse(v, make(map[seenKey]struct{}))
	return v
}

func traverse(v any, seen map[seenKey]struct{}) {
	switch v := v.(type) {
	case nil:
		return
	case *Object:
		if markSeen(reflect.ValueOf(v), seen) {
			return
		}
		v.Range(func(_ string, val any) bool {
			traverse(val, seen)
			return true
		})
		return
	case *Array:
		if markSeen(reflect.ValueOf(v), seen) {
			return
		}
		v.Range(func(_ int, val any) bool {
			traverse(val, seen)
			return true
		})
		return
	}
	traverseValue(reflect.ValueOf(v), seen)
}

func traverseValue(rv reflect.Value, seen map[seenKey]struct{}) {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || markSeen(rv, seen) {
			return
		}
		// Set-like maps have struct{} values; visiting them is harmless.
		iter := rv.MapRange()
		for iter.Next() {
			visit(iter.Key(), seen)
			visit(iter.Value(), seen)
		}
	case reflect.Slice:
		if rv.IsNil() || markSeen(rv, seen) {
			return
		}
		for i := 0; i < rv.Len(); i++ {
			visit(rv.Index(i), seen)
		}
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			visit(rv.Index(i), seen)
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			if t.Field(i).IsExported() {
				visit(rv.Field(i), seen)
			}
		}
	case reflect.Pointer:
		if rv.IsNil() || markSeen(rv, seen) {
			return
		}
		visit(rv.Elem(), seen)
	case reflect.Interface:
		if !rv.IsNil() {
			visit(rv.Elem(), seen)
		}
	}
}

// visit re-enters traverse so wrappers nested in plain Go values are tracked.
func visit(rv reflect.Value, seen map[seenKey]struct{}) {
	if !rv.IsValid() {
		return
	}
	if rv.CanInterface() {
		traverse(rv.Interface(), seen)
		return
	}
	traverseValue(rv, seen)
}

func markSeen(rv reflect.Value, seen map[seenKey]struct{}) bool {
	k := seenKey{typ: rv.Type(), ptr: rv.Pointer()}
	if _, ok := seen[k]; ok {
		return true
	}
	seen[k] = struct{}{}
	return false
}
