// Package connectors holds the adapters that find images on disk.
//
// The filesystem connector scans directories for image files and watches
// them for new arrivals. Everything else in pikia receives plain absolute
// paths from it.
package connectors
