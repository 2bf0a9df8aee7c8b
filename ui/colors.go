package ui

import (
	"hash/fnv"

	"git.sr.ht/~rockorager/vaxis"
)

var ColorDefault = vaxis.Color(0)
var ColorRed = vaxis.IndexColor(9)
var ColorGreen = vaxis.IndexColor(2)
var ColorGray = vaxis.IndexColor(8)

type ColorSchemeType int

const (
	ColorSchemeBase ColorSchemeType = iota
	ColorSchemeExtended
	ColorSchemeFixed
	// ColorSchemeRoles uses the color of the highest colored role of a
	// guild member, and the base scheme elsewhere.
	ColorSchemeRoles
)

type ColorScheme struct {
	Type   ColorSchemeType
	Others vaxis.Color
	Self   vaxis.Color
}

var colors = map[ColorSchemeType][]vaxis.Color{
	// base 16 colors, excluding grayscale colors.
	ColorSchemeBase: {
		vaxis.IndexColor(1),
		vaxis.IndexColor(2),
		vaxis.IndexColor(3),
		vaxis.IndexColor(4),
		vaxis.IndexColor(5),
		vaxis.IndexColor(6),
		vaxis.IndexColor(9),
		vaxis.IndexColor(10),
		vaxis.IndexColor(11),
		vaxis.IndexColor(12),
		vaxis.IndexColor(13),
		vaxis.IndexColor(14),
	},
	// XTerm extended colors with full saturation, by hue.
	ColorSchemeExtended: {
		vaxis.IndexColor(196), vaxis.IndexColor(202), vaxis.IndexColor(208),
		vaxis.IndexColor(214), vaxis.IndexColor(220), vaxis.IndexColor(226),
		vaxis.IndexColor(190), vaxis.IndexColor(154), vaxis.IndexColor(118),
		vaxis.IndexColor(82), vaxis.IndexColor(46), vaxis.IndexColor(47),
		vaxis.IndexColor(48), vaxis.IndexColor(49), vaxis.IndexColor(50),
		vaxis.IndexColor(51), vaxis.IndexColor(45), vaxis.IndexColor(39),
		vaxis.IndexColor(33), vaxis.IndexColor(27), vaxis.IndexColor(21),
		vaxis.IndexColor(57), vaxis.IndexColor(93), vaxis.IndexColor(129),
		vaxis.IndexColor(165), vaxis.IndexColor(201), vaxis.IndexColor(200),
		vaxis.IndexColor(199), vaxis.IndexColor(198), vaxis.IndexColor(197),
	},
}

// IdentColor picks a stable color for ident.
func IdentColor(scheme ColorScheme, ident string, self bool) vaxis.Color {
	if scheme.Type == ColorSchemeFixed {
		if self {
			return scheme.Self
		}
		return scheme.Others
	}
	c, ok := colors[scheme.Type]
	if !ok {
		c = colors[ColorSchemeBase]
	}
	h := fnv.New32()
	_, _ = h.Write([]byte(ident))
	return c[int(h.Sum32()%uint32(len(c)))]
}

// RoleColor converts a Discord role color. Zero means the role has no
// color.
func RoleColor(color int) (vaxis.Color, bool) {
	if color == 0 {
		return ColorDefault, false
	}
	return vaxis.HexColor(uint32(color)), true
}
