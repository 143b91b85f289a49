//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"syscall/js"

	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
	"github.com/himanishpuri/Autochuner/pkg/autotune/tracker"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorInvalidKey
	ErrorNoVoicedFrames
)

// Tracks the pitch of audio samples frame by frame.
// Returns: {error: number, data: {pitch: array, hop: number} | string}
func trackPitch(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float64Array")
	}
	if sampleRateJS.Type() != js.TypeNumber || channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate and channels must be numbers")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	samples, err := floatsFromJS(audioDataJS, "audioArray")
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	if len(samples) == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}
	if channels == 2 {
		samples = stereoToMono(samples)
	}

	yin := tracker.NewYIN()
	f0, err := yin.Track(context.Background(), samples, sampleRate)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Pitch tracking failed: %v", err))
	}
	energy := tracker.RMS(samples, yin.FrameLength, yin.HopLength)
	gated := pitch.Gate(energy, f0, pitch.DefaultEnergyRatio)

	data := js.Global().Get("Object").New()
	data.Set("pitch", contourToJS(gated))
	data.Set("hop", yin.HopLength)
	return makeResponse(data)
}

// Detects the key of a pitch contour in Hz. Non-positive, NaN and null
// entries are unvoiced.
// Returns: {error: number, data: string}
func detectKey(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: pitchArray")
	}

	c, err := contourFromJS(args[0])
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	if c.VoicedCount() == 0 {
		return makeErrorResponse(ErrorNoVoicedFrames, "pitchArray has no voiced frames")
	}

	return makeResponse(pitch.DetectKey(c).String())
}

// Corrects a pitch contour in Hz towards a key; an empty, null or "auto"
// key detects it from the contour.
// Returns: {error: number, data: {key: string, corrected: array} | string}
func tuneContour(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: pitchArray, key, strength")
	}
	if args[1].Type() != js.TypeString && !args[1].IsNull() && !args[1].IsUndefined() {
		return makeErrorResponse(ErrorInvalidArgs, "key must be a string, null or undefined")
	}
	if args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "strength must be a number")
	}

	c, err := contourFromJS(args[0])
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}

	strength := args[2].Float()
	if strength < 0 || math.IsNaN(strength) || math.IsInf(strength, 0) {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid strength: %v", strength))
	}

	var scale pitch.Scale
	if name := keyArg(args[1]); name != "" {
		scale, err = pitch.ParseScale(name)
		if err != nil {
			return makeErrorResponse(ErrorInvalidKey, err.Error())
		}
	} else {
		scale = pitch.ScaleOf(pitch.DetectKey(c))
	}

	corr := pitch.Correct(c, scale, strength, pitch.DefaultSmoothConfig())

	data := js.Global().Get("Object").New()
	data.Set("key", scale.String())
	data.Set("corrected", contourToJS(c.Mask(corr.Corrected)))
	return makeResponse(data)
}

// keyArg returns the requested key name, or "" when the key should be
// detected (null, undefined, empty or "auto").
func keyArg(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	name := strings.TrimSpace(v.String())
	if strings.EqualFold(name, "auto") {
		return ""
	}
	return name
}

func floatsFromJS(v js.Value, name string) ([]float64, error) {
	length := v.Length()
	out := make([]float64, length)
	for i := 0; i < length; i++ {
		val := v.Index(i)
		if val.Type() != js.TypeNumber {
			return nil, fmt.Errorf("%s element %d is not a number", name, i)
		}
		out[i] = val.Float()
	}
	return out, nil
}

func contourFromJS(v js.Value) (pitch.Contour, error) {
	if v.Type() != js.TypeObject {
		return nil, fmt.Errorf("pitchArray must be an Array or Float64Array")
	}
	length := v.Length()
	hz := make([]float64, length)
	for i := 0; i < length; i++ {
		val := v.Index(i)
		switch {
		case val.IsNull() || val.IsUndefined():
			hz[i] = 0
		case val.Type() == js.TypeNumber:
			hz[i] = val.Float()
		default:
			return nil, fmt.Errorf("pitchArray element %d is not a number", i)
		}
	}
	return pitch.FromHz(hz), nil
}

// contourToJS renders unvoiced frames as null
func contourToJS(c pitch.Contour) js.Value {
	arr := js.Global().Get("Array").New(len(c))
	for i, f := range c {
		if f.Voiced {
			arr.SetIndex(i, f.Hz)
		} else {
			arr.SetIndex(i, js.Null())
		}
	}
	return arr
}

func stereoToMono(stereo []float64) []float64 {
	if len(stereo)%2 != 0 {
		stereo = stereo[:len(stereo)-1]
	}

	mono := make([]float64, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2.0
	}
	return mono
}

func makeResponse(data any) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 Autochuner WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("trackPitch", js.FuncOf(trackPitch))
	js.Global().Set("detectKey", js.FuncOf(detectKey))
	js.Global().Set("tuneContour", js.FuncOf(tuneContour))

	if !console.IsUndefined() {
		console.Call("log", "📝 trackPitch, detectKey and tuneContour registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ Autochuner WASM module loaded and ready")
	}

	<-done
}
