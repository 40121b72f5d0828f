// Package cv implements the face locator, the emotion classifier, the camera frame source
// and the display window of facemood on top of OpenCV. It requires OpenCV 4 to be installed
// (see gocv.io for the installation instructions).
package cv
