// Package image8x8 provides the 8x8 RGB frame format used by the DM163 matrix driver.
//
// A Frame always holds exactly 64 pixels stored row-major. Each pixel is a Color with
// three 8-bit channels. The raw byte view of a frame is 192 bytes long with the
// channels of each pixel in R, G, B order:
//
//	Offset: 0  1  2  3  4  5  ...  189 190 191
//	Value:  R0 G0 B0 R1 G1 B1 ...  R63 G63 B63
//
// Colors are stored linear. Gamma correction is applied only when a pixel is shifted
// out to the hardware, never to the stored value.
//
// This package provides:
//
// - Color: a 3-channel color with saturating scalar multiplication and division
// - Gamma: the gamma lookup used at transmission time
// - Frame: an image.Image / draw.Image implementation sized for the 8x8 matrix
//
// Frame also satisfies the TinyGo drivers.Displayer interface, so text renderers such
// as tinyfont can draw straight into it. Pixels outside the 8x8 area are ignored.
//
// Example usage:
//
//	// A red gradient, brightest in the top-left corner
//	f := image8x8.Gradient(image8x8.Red)
//
//	// Overwrite one pixel
//	f.SetColor(3, 4, image8x8.Color{R: 10, G: 20, B: 30})
//
//	// Row 2 as a contiguous slice of 8 pixels
//	for _, c := range f.Row(2) {
//		println(c.R, c.G, c.B)
//	}
package image8x8
