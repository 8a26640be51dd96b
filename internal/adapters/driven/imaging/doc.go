// Package imaging reads image files for detection.
//
// DecodeFrame reads only the header to get the pixel size. Load decodes
// the full image, Thumbnail shrinks it for upload and DataURI encodes it
// for a vision request.
//
// Supported formats: JPEG, PNG, BMP, TIFF, WebP and ICO.
package imaging
