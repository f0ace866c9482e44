package image8x8

import "math"

// GammaExponent is the exponent of the correction curve applied by Gamma.
const GammaExponent = 2.8

var gammaTable = buildGammaTable(GammaExponent)

func buildGammaTable(exp float64) [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = uint8(math.Pow(float64(i)/255, exp)*255 + 0.5)
	}
	return t
}

// Gamma maps a linear channel value to the PWM value sent to the LED driver.
// Gamma(0) is 0, Gamma(255) is 255 and the mapping is monotonic.
func Gamma(v uint8) uint8 {
	return gammaTable[v]
}
