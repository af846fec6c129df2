/*
Package mosaic is a small framework for building in-process dataflow pipelines out of typed boxes.

  - [github.com/saylorsolutions/mosaic/pipeline] connects boxes and dispatches values between them on a single goroutine.
  - [github.com/saylorsolutions/mosaic/boxes] has ready-made boxes for producing, transforming, collecting, and printing values.
  - [github.com/saylorsolutions/mosaic/structures/queue] provides the FIFO queue and single-goroutine worker used by both.

The mosaic command in cmd/mosaic runs a demo pipeline, and is a good place to start reading.
*/
package mosaic
