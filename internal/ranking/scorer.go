package ranking

import "math"

// Score 计算查询向量与候选向量的相似度得分
// 余弦相似度的自然区间是[-1,1]，这里重映射到[0,1]，正交向量得分0.5
// 下游的过滤阈值按重映射后的刻度校准，该映射不可更改
// 任一向量为零向量时得分定义为0.0而不是0.5
func Score(query, candidate []float32) float64 {
	dot := dotProduct(query, candidate)
	normQ := vectorNorm(query)
	normC := vectorNorm(candidate)

	if normQ == 0 || normC == 0 {
		return 0.0
	}

	similarity := dot / (normQ * normC)

	// 处理浮点精度问题
	if similarity > 1.0 {
		similarity = 1.0
	}
	if similarity < -1.0 {
		similarity = -1.0
	}

	return (similarity + 1) / 2
}

// dotProduct 计算两个向量的点积
func dotProduct(v1, v2 []float32) float64 {
	n := len(v1)
	if len(v2) < n {
		n = len(v2)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(v1[i]) * float64(v2[i])
	}
	return dot
}

// vectorNorm 计算向量的L2范数
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}
