package elements

import "strconv"

// Attribute names used in status and update packets.
const (
	attrBrightness = "brightness"
	attrColorMode  = "colorMode"
	attrColorTemp  = "colorTemperature"
	attrModel      = "typeCode"
	attrOnline     = "online"
	attrRGBColor   = "color"
	attrSWVersion  = "version"
	attrSwitch     = "switch"

	valueOff = "0"
	valueOn  = "1"
)

// Color temperature range of Elements hardware, in mireds.
const (
	MinMireds = 154
	MaxMireds = 400
)

// ceilDiv returns ceil(a/b) for non-negative a and positive b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// decodeBrightness converts the wire percentage (0-100) to a 0-255 level.
func decodeBrightness(pct string) (int, error) {
	n, err := strconv.Atoi(pct)
	if err != nil {
		return 0, err
	}
	return ceilDiv(n*255, 100), nil
}

// encodeBrightness converts a 0-255 level to the wire percentage.
func encodeBrightness(level int) string {
	return strconv.Itoa(ceilDiv(level*100, 255))
}

// decodeColorTemp converts the wire percentage to mireds. The wire value
// is inverted: 100 is the coolest temperature the bulb supports.
func decodeColorTemp(pct string, minMireds, maxMireds int) (int, error) {
	n, err := strconv.Atoi(pct)
	if err != nil {
		return 0, err
	}
	return maxMireds - n*(maxMireds-minMireds)/100, nil
}

// encodeColorTemp converts mireds to the wire percentage.
func encodeColorTemp(mireds, minMireds, maxMireds int) string {
	return strconv.Itoa(ceilDiv((maxMireds-mireds)*100, maxMireds-minMireds))
}
