// Package pose reads single-frame pose-estimation output (OpenPose-style JSON keypoints) into
// fixed-shape frames.
//
// A pose file holds one JSON object with a "people" list. Only the first detected person is
// used; its "pose_keypoints_2d" array is a flat list of (x, y, confidence) triples for the 25
// joints of the BODY_25 layout. Frames are always Joints × Mode.Channels() values, joint-major,
// regardless of what was (or wasn't) in the file.
package pose
