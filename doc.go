/*
Package facemood detects the faces on an image or a live video frame and classifies
each of them into one of seven emotions: Angry, Disgust, Fear, Happy, Sad, Surprise and Neutral.

The face locator and the emotion classifier are pluggable. The cv subpackage provides
OpenCV backed implementations (Haar cascade and DNN), while PigoLocator is a pure Go face locator.

The package provides a command line interface with a web, a live webcam and a batch mode.
To check the supported commands type:

	$ facemood --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"os"

		"github.com/esimov/facemood"
	)

	func main() {
		locator, err := facemood.LoadPigo("data/facefinder")
		if err != nil {
			panic(err)
		}
		det := facemood.NewDetector(locator, myClassifier)

		f, _ := os.Open("face.jpg")
		frame, err := facemood.DecodeImage(f)
		if err != nil {
			panic(err)
		}
		res, err := det.Process(frame)
		if err != nil {
			fmt.Printf("Error detecting emotions: %s", err.Error())
		}
		for _, face := range res.Faces {
			fmt.Println(face.ConsoleLine())
		}
	}
*/
package facemood
