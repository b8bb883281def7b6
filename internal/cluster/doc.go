// Package cluster merges overlapping candidate windows into detections
// without knowing the number of objects in advance.
//
// FindCenters estimates the cluster count with a farthest-point heuristic:
// starting from the first candidate it keeps adding the candidate farthest
// from every seed picked so far, until that distance drops below half the
// running mean of the previous picks. Clusters then refines those seeds
// k-means style, assigning every candidate to its nearest centre and moving
// each centre to the mean of its members, until no candidate changes
// cluster.
//
// All distances are Euclidean distances between window centres.
package cluster
