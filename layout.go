package slotarena

import (
	"fmt"
	"reflect"
)

// Slots live in memory the garbage collector does not scan, so a stored
// value must not hold any Go pointer. isPointerFree is the fast path for
// scalar kinds.
func isPointerFree(ty reflect.Type) bool {
	switch ty.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint8,
		reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isPointerFree(ty.Elem())
	default:
		return false
	}
}

// pointerProblem walks ty and returns a description of the first field that
// holds a pointer, or "" if the type is safe to store as raw bytes.
//
// Recursion terminates because a type can only refer to itself through a
// pointer, and pointers stop the walk.
func pointerProblem(ty reflect.Type) string {
	if isPointerFree(ty) {
		return ""
	}
	switch ty.Kind() {
	case reflect.Slice, reflect.String, reflect.Interface, reflect.Chan,
		reflect.Func, reflect.Map, reflect.Pointer, reflect.UnsafePointer:
		return fmt.Sprintf("type %s contains pointers", ty)
	case reflect.Array:
		if problem := pointerProblem(ty.Elem()); problem != "" {
			return "array element " + problem
		}
	case reflect.Struct:
		for i := 0; i < ty.NumField(); i++ {
			field := ty.Field(i)
			if problem := pointerProblem(field.Type); problem != "" {
				return fmt.Sprintf("struct %s field %q: %s", ty, field.Name, problem)
			}
		}
	}
	return ""
}

// checkStorable reports a contract violation if values of ty cannot live
// inside an arena slot.
func checkStorable(ty reflect.Type) {
	if ty.Size() == 0 {
		violation(ErrUnsupportedType, "type %s has zero size", ty)
	}
	if problem := pointerProblem(ty); problem != "" {
		violation(ErrUnsupportedType, "%s", problem)
	}
}
