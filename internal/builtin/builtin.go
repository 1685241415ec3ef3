// Package builtin lists the members of the sass:* modules.
package builtin

import (
	"sort"
	"strings"
)

type Kind int

const (
	Function Kind = iota
	Variable
	Mixin
)

// Member is one function, variable or mixin exported by a built-in module.
type Member struct {
	Module      string
	Name        string
	Kind        Kind
	Signature   string
	Description string
}

// Reference is the documentation link of the member.
func (m Member) Reference() string {
	return "https://sass-lang.com/documentation/modules/" + m.Module
}

type entry struct {
	name, signature, description string
}

func fn(name, signature, description string) entry {
	return entry{name: name, signature: signature, description: description}
}

var tables = map[string][]entry{
	"math": {
		fn("$e", "", "Equal to the value of the mathematical constant e."),
		fn("$epsilon", "", "The difference between 1 and the smallest floating point number greater than 1."),
		fn("$max-number", "", "The maximum finite number that can be represented."),
		fn("$max-safe-integer", "", "The maximum integer n such that n and n + 1 are precisely representable."),
		fn("$min-number", "", "The smallest positive number that can be represented."),
		fn("$min-safe-integer", "", "The minimum integer n such that n and n - 1 are precisely representable."),
		fn("$pi", "", "Equal to the value of the mathematical constant π."),
		fn("abs", "($number)", "Returns the absolute value of $number."),
		fn("acos", "($number)", "Returns the arccosine of $number."),
		fn("asin", "($number)", "Returns the arcsine of $number."),
		fn("atan", "($number)", "Returns the arctangent of $number."),
		fn("atan2", "($y, $x)", "Returns the 2-argument arctangent of $y and $x."),
		fn("ceil", "($number)", "Rounds up to the nearest whole number."),
		fn("clamp", "($min, $number, $max)", "Restricts $number to the range between $min and $max."),
		fn("compatible", "($number1, $number2)", "Returns whether $number1 and $number2 have compatible units."),
		fn("cos", "($number)", "Returns the cosine of $number."),
		fn("div", "($number1, $number2)", "Returns the result of dividing $number1 by $number2."),
		fn("floor", "($number)", "Rounds down to the nearest whole number."),
		fn("hypot", "($number...)", "Returns the length of the n-dimensional vector with components equal to each $number."),
		fn("is-unitless", "($number)", "Returns whether $number has no units."),
		fn("log", "($number, $base: null)", "Returns the logarithm of $number with respect to $base."),
		fn("max", "($number...)", "Returns the highest of one or more numbers."),
		fn("min", "($number...)", "Returns the lowest of one or more numbers."),
		fn("percentage", "($number)", "Converts a unitless $number to a percentage."),
		fn("pow", "($base, $exponent)", "Raises $base to the power of $exponent."),
		fn("random", "($limit: null)", "Returns a random number."),
		fn("round", "($number)", "Rounds to the nearest whole number."),
		fn("sin", "($number)", "Returns the sine of $number."),
		fn("sqrt", "($number)", "Returns the square root of $number."),
		fn("tan", "($number)", "Returns the tangent of $number."),
		fn("unit", "($number)", "Returns a string representation of $number's units."),
	},
	"string": {
		fn("index", "($string, $substring)", "Returns the first index of $substring in $string."),
		fn("insert", "($string, $insert, $index)", "Returns a copy of $string with $insert inserted at $index."),
		fn("length", "($string)", "Returns the number of characters in $string."),
		fn("quote", "($string)", "Returns $string as a quoted string."),
		fn("slice", "($string, $start-at, $end-at: -1)", "Returns the slice of $string starting at $start-at and ending at $end-at."),
		fn("split", "($string, $separator, $limit: null)", "Returns a bracketed, comma-separated list of substrings of $string."),
		fn("to-lower-case", "($string)", "Returns a copy of $string with ASCII letters converted to lower case."),
		fn("to-upper-case", "($string)", "Returns a copy of $string with ASCII letters converted to upper case."),
		fn("unique-id", "()", "Returns a randomly-generated unquoted string that's guaranteed to be a valid CSS identifier."),
		fn("unquote", "($string)", "Returns $string as an unquoted string."),
	},
	"list": {
		fn("append", "($list, $val, $separator: auto)", "Returns a copy of $list with $val added to the end."),
		fn("index", "($list, $value)", "Returns the index of $value in $list."),
		fn("is-bracketed", "($list)", "Returns whether $list has square brackets."),
		fn("join", "($list1, $list2, $separator: auto, $bracketed: auto)", "Returns a new list containing the elements of $list1 followed by the elements of $list2."),
		fn("length", "($list)", "Returns the length of $list."),
		fn("nth", "($list, $n)", "Returns the element of $list at index $n."),
		fn("separator", "($list)", "Returns the name of the separator used by $list."),
		fn("set-nth", "($list, $n, $value)", "Returns a copy of $list with the element at index $n replaced with $value."),
		fn("slash", "($elements...)", "Returns a slash-separated list that contains $elements."),
		fn("zip", "($lists...)", "Combines every list in $lists into a single list of sub-lists."),
	},
	"map": {
		fn("deep-merge", "($map1, $map2)", "Identical to map.merge, except that nested map values are also recursively merged."),
		fn("deep-remove", "($map, $key, $keys...)", "Returns a copy of $map without the nested value at the given keys."),
		fn("get", "($map, $key, $keys...)", "Returns the value in $map associated with $key."),
		fn("has-key", "($map, $key, $keys...)", "Returns whether $map contains a value associated with $key."),
		fn("keys", "($map)", "Returns a comma-separated list of all the keys in $map."),
		fn("merge", "($map1, $args...)", "Returns a new map with all the keys and values from both maps."),
		fn("remove", "($map, $keys...)", "Returns a copy of $map without any values associated with $keys."),
		fn("set", "($map, $args...)", "Returns a copy of $map with the value at the given keys set."),
		fn("values", "($map)", "Returns a comma-separated list of all the values in $map."),
	},
	"color": {
		fn("adjust", "($color, $red: null, $green: null, $blue: null, $hue: null, $saturation: null, $lightness: null, $whiteness: null, $blackness: null, $alpha: null, $space: null)", "Increases or decreases one or more properties of $color by fixed amounts."),
		fn("alpha", "($color)", "Returns the alpha channel of $color as a number between 0 and 1."),
		fn("blackness", "($color)", "Returns the HWB blackness of $color."),
		fn("blue", "($color)", "Returns the blue channel of $color."),
		fn("change", "($color, $red: null, $green: null, $blue: null, $hue: null, $saturation: null, $lightness: null, $whiteness: null, $blackness: null, $alpha: null, $space: null)", "Sets one or more properties of a color to new values."),
		fn("channel", "($color, $channel, $space: null)", "Returns the value of $channel in $space."),
		fn("complement", "($color, $space: null)", "Returns the RGB complement of $color."),
		fn("grayscale", "($color)", "Returns a gray color with the same lightness as $color."),
		fn("green", "($color)", "Returns the green channel of $color."),
		fn("hue", "($color)", "Returns the hue of $color."),
		fn("hwb", "($hue, $whiteness, $blackness, $alpha: 1)", "Returns a color with the given hue, whiteness, and blackness."),
		fn("ie-hex-str", "($color)", "Returns an unquoted string that represents $color in the #AARRGGBB format."),
		fn("invert", "($color, $weight: 100%, $space: null)", "Returns the inverse or negative of $color."),
		fn("is-legacy", "($color)", "Returns whether $color is in a legacy color space."),
		fn("is-missing", "($color, $channel)", "Returns whether $channel is missing in $color."),
		fn("is-powerless", "($color, $channel, $space: null)", "Returns whether $color's $channel is powerless in $space."),
		fn("lightness", "($color)", "Returns the HSL lightness of $color."),
		fn("mix", "($color1, $color2, $weight: 50%, $method: null)", "Returns a color that's a mixture of $color1 and $color2."),
		fn("red", "($color)", "Returns the red channel of $color."),
		fn("same", "($color1, $color2)", "Returns whether $color1 and $color2 visually render as the same color."),
		fn("saturation", "($color)", "Returns the HSL saturation of $color."),
		fn("scale", "($color, $red: null, $green: null, $blue: null, $saturation: null, $lightness: null, $whiteness: null, $blackness: null, $alpha: null, $space: null)", "Fluidly scales one or more properties of $color."),
		fn("space", "($color)", "Returns the name of $color's space as an unquoted string."),
		fn("to-gamut", "($color, $space: null, $method: null)", "Returns a visually similar color to $color in the gamut of $space."),
		fn("to-space", "($color, $space)", "Converts $color into the given $space."),
		fn("whiteness", "($color)", "Returns the HWB whiteness of $color."),
	},
	"selector": {
		fn("append", "($selectors...)", "Combines $selectors without descendant combinators."),
		fn("extend", "($selector, $extendee, $extender)", "Extends $selector as with the @extend rule."),
		fn("is-superselector", "($super, $sub)", "Returns whether the selector $super matches all the elements that the selector $sub matches."),
		fn("nest", "($selectors...)", "Combines $selectors as though they were nested within one another."),
		fn("parse", "($selector)", "Returns $selector in the selector value format."),
		fn("replace", "($selector, $original, $replacement)", "Returns a copy of $selector with all instances of $original replaced by $replacement."),
		fn("simple-selectors", "($selector)", "Returns a list of simple selectors in $selector."),
		fn("unify", "($selector1, $selector2)", "Returns a selector that matches only elements matched by both $selector1 and $selector2."),
	},
	"meta": {
		fn("accepts-content", "($mixin)", "Returns whether the given mixin value can accept a content block."),
		fn("apply", "($mixin, $args...)", "Includes $mixin with $args."),
		fn("calc-args", "($calc)", "Returns the arguments for the given calculation."),
		fn("calc-name", "($calc)", "Returns the name of the given calculation."),
		fn("call", "($function, $args...)", "Invokes $function with $args and returns the result."),
		fn("content-exists", "()", "Returns whether the current mixin was passed a content block."),
		fn("feature-exists", "($feature)", "Returns whether the current Sass implementation supports $feature."),
		fn("function-exists", "($name, $module: null)", "Returns whether a function named $name is defined."),
		fn("get-function", "($name, $css: false, $module: null)", "Returns the function value named $name."),
		fn("get-mixin", "($name, $module: null)", "Returns the mixin value named $name."),
		fn("global-variable-exists", "($name, $module: null)", "Returns whether a global variable named $name exists."),
		fn("inspect", "($value)", "Returns a string representation of $value."),
		fn("keywords", "($args)", "Returns the keywords passed to a mixin or function that takes arbitrary arguments."),
		fn("load-css", "($url, $with: null)", "Loads the module at $url and includes its CSS as though it were written as the contents of this mixin."),
		fn("mixin-exists", "($name, $module: null)", "Returns whether a mixin named $name exists."),
		fn("module-functions", "($module)", "Returns all the functions defined in a module."),
		fn("module-mixins", "($module)", "Returns all the mixins defined in a module."),
		fn("module-variables", "($module)", "Returns all the variables defined in a module."),
		fn("type-of", "($value)", "Returns the type of $value."),
		fn("variable-exists", "($name)", "Returns whether a variable named $name exists in the current scope."),
	},
}

var mixins = map[string]bool{
	"meta.load-css": true,
	"meta.apply":    true,
}

// Normalize strips the sass: scheme from a module name.
func Normalize(module string) string {
	return strings.TrimPrefix(module, "sass:")
}

// IsBuiltin reports whether url names a built-in module.
func IsBuiltin(url string) bool {
	if !strings.HasPrefix(url, "sass:") {
		return false
	}
	_, ok := tables[Normalize(url)]
	return ok
}

func member(module string, e entry) Member {
	m := Member{Module: module, Name: e.name, Signature: e.signature, Description: e.description}
	switch {
	case strings.HasPrefix(e.name, "$"):
		m.Kind = Variable
	case mixins[module+"."+e.name]:
		m.Kind = Mixin
	default:
		m.Kind = Function
	}
	return m
}

// Lookup finds a member of a built-in module. Variable names carry their
// $ sigil.
func Lookup(module, name string) (Member, bool) {
	module = Normalize(module)
	for _, e := range tables[module] {
		if e.name == name {
			return member(module, e), true
		}
	}
	return Member{}, false
}

// Members lists every member of a built-in module in name order.
func Members(module string) []Member {
	module = Normalize(module)
	entries := tables[module]
	out := make([]Member, 0, len(entries))
	for _, e := range entries {
		out = append(out, member(module, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Modules lists the built-in module names with the sass: scheme.
func Modules() []string {
	out := make([]string, 0, len(tables))
	for name := range tables {
		out = append(out, "sass:"+name)
	}
	sort.Strings(out)
	return out
}
