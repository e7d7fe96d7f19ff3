package value

// Kind is the closed set of value categories the codec understands.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBytes
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindVector2
	KindVector3
	KindVector4
	KindQuaternion
	KindColor
	KindType
	KindUUID
	KindRef
	KindList
	KindMap
	KindArray
	KindEnum
	KindStruct
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindBytes:      "bytes",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindBool:       "bool",
	KindString:     "string",
	KindVector2:    "vector2",
	KindVector3:    "vector3",
	KindVector4:    "vector4",
	KindQuaternion: "quaternion",
	KindColor:      "color",
	KindType:       "type",
	KindUUID:       "uuid",
	KindRef:        "ref",
	KindList:       "list",
	KindMap:        "map",
	KindArray:      "array",
	KindEnum:       "enum",
	KindStruct:     "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// scalar kinds are fully described by their kind name on the wire.
func (k Kind) scalar() bool {
	return k >= KindBytes && k <= KindRef
}

// floats is the number of float32 components of a geometric kind.
func (k Kind) floats() int {
	switch k {
	case KindVector2:
		return 2
	case KindVector3:
		return 3
	case KindVector4, KindQuaternion, KindColor:
		return 4
	default:
		return 0
	}
}
