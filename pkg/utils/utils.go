// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package utils

// Contains return true if val exist in list, else return false.
func Contains[T comparable](list []T, val T) bool {
	for _, v := range list {
		if v == val {
			return true
		}
	}
	return false
}

// HasCommonElement returns true when the two lists share at least one element.
func HasCommonElement[T comparable](s1, s2 []T) bool {
	set := make(map[T]struct{}, len(s1))
	for _, v := range s1 {
		set[v] = struct{}{}
	}
	for _, v := range s2 {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
